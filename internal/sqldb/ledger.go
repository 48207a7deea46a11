package sqldb

import (
	"context"
	"fmt"
	"preacc/entity"
	"strings"
)

func (s *MySql) SaveEntry(ctx context.Context, e *entity.Entry) error {
	stmt, err := s.stmtUpsertEntry(ctx)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		e.Id,
		e.CompanyId,
		string(e.Type),
		e.Category,
		e.Value().StringFixed(2),
		e.Currency,
		e.Date,
		e.Description,
		e.Created,
		e.Updated,
	)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (s *MySql) GetEntry(ctx context.Context, companyId, id string) (*entity.Entry, error) {
	stmt, err := s.stmtSelectEntry(ctx)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(stmt.QueryRowContext(ctx, id, companyId))
	if err != nil {
		return nil, s.findError(err)
	}
	return e, nil
}

func (s *MySql) ListEntries(ctx context.Context, companyId string, f entity.EntryFilter) ([]*entity.Entry, error) {
	conditions := []string{"company_id = ?"}
	args := []interface{}{companyId}
	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, f.Category)
	}
	if f.From != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, f.To)
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY date DESC, created DESC", s.selectEntries(), strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries := make([]*entity.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MySql) DeleteEntry(ctx context.Context, companyId, id string) error {
	stmt, err := s.stmtDeleteEntry(ctx)
	if err != nil {
		return err
	}
	result, err := stmt.ExecContext(ctx, id, companyId)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if count == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func scanEntry(row scanner) (*entity.Entry, error) {
	var e entity.Entry
	var typ string
	if err := row.Scan(
		&e.Id,
		&e.CompanyId,
		&typ,
		&e.Category,
		&e.Amount,
		&e.Currency,
		&e.Date,
		&e.Description,
		&e.Created,
		&e.Updated,
	); err != nil {
		return nil, err
	}
	e.Type = entity.EntryType(typ)
	return &e, nil
}

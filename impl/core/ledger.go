package core

import (
	"context"
	"fmt"
	"log/slog"
	"preacc/entity"
	"preacc/internal/register"

	"github.com/google/uuid"
)

// CreateEntry records income or expense for the user's company.
func (c *Core) CreateEntry(ctx context.Context, user *entity.User, e *entity.Entry) (*entity.Entry, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return nil, err
	}
	now := c.now()
	e.Id = uuid.NewString()
	e.CompanyId = companyId
	e.Created = now
	e.Updated = now
	e.Normalize()

	if err = c.db.SaveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	c.log.With(
		slog.String("entry_id", e.Id),
		slog.String("company_id", companyId),
		slog.String("type", string(e.Type)),
	).Info("ledger entry created")
	return e, nil
}

func (c *Core) ReplaceEntry(ctx context.Context, user *entity.User, id string, body *entity.Entry) (*entity.Entry, error) {
	e, err := c.GetEntry(ctx, user, id)
	if err != nil {
		return nil, err
	}
	body.Id = e.Id
	body.CompanyId = e.CompanyId
	body.Created = e.Created
	body.Updated = c.now()
	body.Normalize()

	if err = c.db.SaveEntry(ctx, body); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return body, nil
}

func (c *Core) GetEntry(ctx context.Context, user *entity.User, id string) (*entity.Entry, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, entity.ErrNotFound
	}
	return c.db.GetEntry(ctx, companyId, id)
}

func (c *Core) ListEntries(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]*entity.Entry, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return nil, err
	}
	return c.db.ListEntries(ctx, companyId, filter)
}

func (c *Core) DeleteEntry(ctx context.Context, user *entity.User, id string) error {
	if c.db == nil {
		return fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return err
	}
	if id == "" {
		return entity.ErrNotFound
	}
	if err = c.db.DeleteEntry(ctx, companyId, id); err != nil {
		return err
	}
	c.log.With(slog.String("entry_id", id)).Info("ledger entry deleted")
	return nil
}

// LedgerSummary totals the filtered entries per currency.
func (c *Core) LedgerSummary(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]*entity.Balance, error) {
	entries, err := c.ListEntries(ctx, user, filter)
	if err != nil {
		return nil, err
	}
	return entity.Summarize(entries), nil
}

func (c *Core) LedgerRegister(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]byte, *entity.FileMeta, error) {
	entries, err := c.ListEntries(ctx, user, filter)
	if err != nil {
		return nil, nil, err
	}
	data, err := register.Ledger(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: %w", err)
	}
	meta := &entity.FileMeta{
		FileName:      fmt.Sprintf("ledger-%s.xlsx", c.now().Format("20060102")),
		ContentType:   entity.ContentTypeXlsx,
		ContentLength: int64(len(data)),
	}
	return data, meta, nil
}

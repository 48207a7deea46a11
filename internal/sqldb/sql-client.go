package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"preacc/entity"
	"preacc/internal/config"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySql.Enabled {
		return nil, fmt.Errorf("mysql client is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	return New(context.Background(), db, conf.MySql.Prefix)
}

// New wraps an open connection and makes sure the tables exist.
func New(ctx context.Context, db *sql.DB, prefix string) (*MySql, error) {
	sdb := &MySql{
		db:         db,
		prefix:     prefix,
		statements: make(map[string]*sql.Stmt),
	}
	if err := sdb.createTables(ctx); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) GetUser(token string) (*entity.User, error) {
	ctx := context.Background()
	stmt, err := s.stmtSelectUser(ctx)
	if err != nil {
		return nil, err
	}
	var user entity.User
	err = stmt.QueryRowContext(ctx, token).Scan(
		&user.Username,
		&user.Name,
		&user.Email,
		&user.Token,
		&user.CompanyId,
	)
	if err != nil {
		return nil, s.findError(err)
	}
	return &user, nil
}

func (s *MySql) SaveInvoice(ctx context.Context, inv *entity.Invoice) error {
	stmt, err := s.stmtUpsertInvoice(ctx)
	if err != nil {
		return err
	}
	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}
	var paidAt sql.NullTime
	if !inv.PaidAt.IsZero() {
		paidAt = sql.NullTime{Time: inv.PaidAt, Valid: true}
	}
	_, err = stmt.ExecContext(ctx,
		inv.Id,
		inv.CompanyId,
		inv.InvoiceNumber,
		inv.InvoiceDate,
		inv.DueDate,
		inv.Currency,
		inv.CustomerName,
		inv.CustomerAddress,
		inv.CustomerEmail,
		inv.CustomerCountry,
		inv.TaxOffice,
		inv.TaxNumber,
		string(inv.Status),
		string(items),
		inv.Notes,
		inv.Paid,
		paidAt,
		inv.PaymentLink,
		inv.SessionId,
		inv.Created,
		inv.Updated,
	)
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

func (s *MySql) GetInvoice(ctx context.Context, companyId, id string) (*entity.Invoice, error) {
	stmt, err := s.stmtSelectInvoice(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(stmt.QueryRowContext(ctx, id, companyId))
	if err != nil {
		return nil, s.findError(err)
	}
	return inv, nil
}

func (s *MySql) GetInvoiceBySession(ctx context.Context, sessionId string) (*entity.Invoice, error) {
	stmt, err := s.stmtSelectInvoiceBySession(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(stmt.QueryRowContext(ctx, sessionId))
	if err != nil {
		return nil, s.findError(err)
	}
	return inv, nil
}

func (s *MySql) ListInvoices(ctx context.Context, companyId string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	invoices := make([]*entity.Invoice, 0)
	status := f.Status
	if f.Unpaid {
		if status != "" && status != entity.StatusIssued {
			return invoices, nil
		}
		status = entity.StatusIssued
	}

	conditions := []string{"company_id = ?"}
	args := []interface{}{companyId}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(status))
	}
	if f.Unpaid {
		conditions = append(conditions, "paid = 0")
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY created DESC", s.selectInvoices(), strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *MySql) findError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	return fmt.Errorf("mysql find: %w", err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status, items string
	var paidAt sql.NullTime
	if err := row.Scan(
		&inv.Id,
		&inv.CompanyId,
		&inv.InvoiceNumber,
		&inv.InvoiceDate,
		&inv.DueDate,
		&inv.Currency,
		&inv.CustomerName,
		&inv.CustomerAddress,
		&inv.CustomerEmail,
		&inv.CustomerCountry,
		&inv.TaxOffice,
		&inv.TaxNumber,
		&status,
		&items,
		&inv.Notes,
		&inv.Paid,
		&paidAt,
		&inv.PaymentLink,
		&inv.SessionId,
		&inv.Created,
		&inv.Updated,
	); err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	if paidAt.Valid {
		inv.PaidAt = paidAt.Time
	}
	inv.LineItems = make([]*entity.InvoiceLine, 0)
	if items != "" {
		if err := json.Unmarshal([]byte(items), &inv.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items: %w", err)
		}
	}
	return &inv, nil
}

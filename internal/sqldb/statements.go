package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// invoiceColumns is the column order used by every invoice select and insert.
var invoiceColumns = []string{
	"id",
	"company_id",
	"invoice_number",
	"invoice_date",
	"due_date",
	"currency",
	"customer_name",
	"customer_address",
	"customer_email",
	"customer_country",
	"tax_office",
	"tax_number",
	"status",
	"line_items",
	"notes",
	"paid",
	"paid_at",
	"payment_link",
	"session_id",
	"created",
	"updated",
}

var entryColumns = []string{
	"id",
	"company_id",
	"type",
	"category",
	"amount",
	"currency",
	"date",
	"description",
	"created",
	"updated",
}

func (s *MySql) prepareStmt(ctx context.Context, name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) selectInvoices() string {
	return fmt.Sprintf("SELECT %s FROM %sinvoice", strings.Join(invoiceColumns, ", "), s.prefix)
}

func (s *MySql) stmtSelectUser(ctx context.Context) (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT username, name, email, token, company_id FROM %suser WHERE token = ?`,
		s.prefix,
	)
	return s.prepareStmt(ctx, "selectUser", query)
}

func (s *MySql) stmtSelectInvoice(ctx context.Context) (*sql.Stmt, error) {
	query := s.selectInvoices() + " WHERE id = ? AND company_id = ?"
	return s.prepareStmt(ctx, "selectInvoice", query)
}

func (s *MySql) stmtSelectInvoiceBySession(ctx context.Context) (*sql.Stmt, error) {
	query := s.selectInvoices() + " WHERE session_id = ?"
	return s.prepareStmt(ctx, "selectInvoiceBySession", query)
}

func (s *MySql) stmtUpsertInvoice(ctx context.Context) (*sql.Stmt, error) {
	placeholders := make([]string, len(invoiceColumns))
	updates := make([]string, 0, len(invoiceColumns))
	for i, col := range invoiceColumns {
		placeholders[i] = "?"
		if col == "id" || col == "company_id" || col == "created" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	query := fmt.Sprintf(
		"INSERT INTO %sinvoice (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.prefix,
		strings.Join(invoiceColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	return s.prepareStmt(ctx, "upsertInvoice", query)
}

func (s *MySql) selectEntries() string {
	return fmt.Sprintf("SELECT %s FROM %sledger", strings.Join(entryColumns, ", "), s.prefix)
}

func (s *MySql) stmtSelectEntry(ctx context.Context) (*sql.Stmt, error) {
	query := s.selectEntries() + " WHERE id = ? AND company_id = ?"
	return s.prepareStmt(ctx, "selectEntry", query)
}

func (s *MySql) stmtDeleteEntry(ctx context.Context) (*sql.Stmt, error) {
	query := fmt.Sprintf("DELETE FROM %sledger WHERE id = ? AND company_id = ?", s.prefix)
	return s.prepareStmt(ctx, "deleteEntry", query)
}

func (s *MySql) stmtUpsertEntry(ctx context.Context) (*sql.Stmt, error) {
	placeholders := make([]string, len(entryColumns))
	updates := make([]string, 0, len(entryColumns))
	for i, col := range entryColumns {
		placeholders[i] = "?"
		if col == "id" || col == "company_id" || col == "created" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	query := fmt.Sprintf(
		"INSERT INTO %sledger (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.prefix,
		strings.Join(entryColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	return s.prepareStmt(ctx, "upsertEntry", query)
}

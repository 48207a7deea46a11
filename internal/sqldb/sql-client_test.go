package sqldb

import (
	"context"
	"database/sql/driver"
	"preacc/entity"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*MySql, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pa_user").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pa_invoice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pa_ledger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := New(context.Background(), db, "pa_")
	require.NoError(t, err)

	return s, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}
}

func invoiceRow(rows *sqlmock.Rows, id, status string, paid bool, created time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "c1", "INV-1", "2024-03-15", "", "USD",
		"Acme", "1 Main St", "", "", "Central", "123",
		status, `[{"name":"Consulting","quantity":6,"unit_price":450,"vat_rate":20},{"name":"Hosting","quantity":1,"unit_price":900,"vat_rate":20}]`, "",
		paid, nil, "", "", created, created,
	)
}

func TestGetUser(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	query := regexp.QuoteMeta("SELECT username, name, email, token, company_id FROM pa_user WHERE token = ?")
	prep := mock.ExpectPrepare(query)
	prep.ExpectQuery().WithArgs("secret").
		WillReturnRows(sqlmock.NewRows([]string{"username", "name", "email", "token", "company_id"}).
			AddRow("alice", "Alice", "alice@example.com", "secret", "c1"))
	prep.ExpectQuery().WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"username", "name", "email", "token", "company_id"}))

	user, err := s.GetUser("secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "c1", user.CompanyId)

	_, err = s.GetUser("missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestSaveInvoice(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{
		Id:           "id-1",
		CompanyId:    "c1",
		InvoiceDate:  "2024-03-15",
		CustomerName: "Acme",
		Status:       entity.StatusDraft,
		LineItems:    []*entity.InvoiceLine{{Name: "Consulting", Quantity: 6, UnitPrice: 450, VatRate: 20}},
		Created:      now,
		Updated:      now,
	}

	args := make([]driver.Value, len(invoiceColumns))
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[0] = "id-1"
	args[1] = "c1"
	args[12] = "DRAFT"

	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO pa_invoice (id, company_id,")).
		ExpectExec().WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveInvoice(context.Background(), inv))
}

func TestGetInvoice(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := invoiceRow(sqlmock.NewRows(invoiceColumns), "id-1", "ISSUED", false, created)
	mock.ExpectPrepare(regexp.QuoteMeta("FROM pa_invoice WHERE id = ? AND company_id = ?")).
		ExpectQuery().WithArgs("id-1", "c1").
		WillReturnRows(rows)

	inv, err := s.GetInvoice(context.Background(), "c1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusIssued, inv.Status)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Consulting", inv.LineItems[0].Name)
	assert.Equal(t, "3600.00", inv.Totals().Subtotal.StringFixed(2))
	assert.True(t, inv.PaidAt.IsZero())
}

func TestGetInvoiceNotFound(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	mock.ExpectPrepare(regexp.QuoteMeta("FROM pa_invoice WHERE id = ? AND company_id = ?")).
		ExpectQuery().WithArgs("id-1", "other").
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	_, err := s.GetInvoice(context.Background(), "other", "id-1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestListInvoicesUnpaid(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(invoiceColumns)
	invoiceRow(rows, "id-1", "ISSUED", false, created)
	invoiceRow(rows, "id-2", "ISSUED", false, created.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM pa_invoice WHERE company_id = ? AND status = ? AND paid = 0 ORDER BY created DESC")).
		WithArgs("c1", "ISSUED").
		WillReturnRows(rows)

	list, err := s.ListInvoices(context.Background(), "c1", entity.InvoiceFilter{Unpaid: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "id-1", list[0].Id)
	assert.Equal(t, "id-2", list[1].Id)
}

func TestListInvoicesConflictingFilter(t *testing.T) {
	s, _, done := setupTestDB(t)
	defer done()

	list, err := s.ListInvoices(context.Background(), "c1", entity.InvoiceFilter{Status: entity.StatusDraft, Unpaid: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

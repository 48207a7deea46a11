package sqldb

import (
	"context"
	"preacc/entity"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveEntry(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	e := &entity.Entry{
		Id:        "e-1",
		CompanyId: "c1",
		Type:      entity.EntryExpense,
		Category:  "Rent",
		Amount:    1200.5,
		Currency:  "EUR",
		Date:      "2024-03-01",
		Created:   now,
		Updated:   now,
	}

	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO pa_ledger (id, company_id,")).
		ExpectExec().
		WithArgs("e-1", "c1", "EXPENSE", "Rent", "1200.50", "EUR", "2024-03-01", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveEntry(context.Background(), e))
}

func TestGetEntry(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(entryColumns).
		AddRow("e-1", "c1", "INCOME", "Sales", 4320.0, "USD", "2024-03-10", "INV-1", created, created)
	mock.ExpectPrepare(regexp.QuoteMeta("FROM pa_ledger WHERE id = ? AND company_id = ?")).
		ExpectQuery().WithArgs("e-1", "c1").
		WillReturnRows(rows)

	e, err := s.GetEntry(context.Background(), "c1", "e-1")
	require.NoError(t, err)
	assert.Equal(t, entity.EntryIncome, e.Type)
	assert.Equal(t, 4320.0, e.Amount)
	assert.Equal(t, "INV-1", e.Description)
}

func TestListEntriesFilter(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(entryColumns).
		AddRow("e-2", "c1", "EXPENSE", "Rent", 1200.0, "USD", "2024-03-01", "", created, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pa_ledger WHERE company_id = ? AND type = ? AND date >= ? AND date <= ? ORDER BY date DESC, created DESC")).
		WithArgs("c1", "EXPENSE", "2024-03-01", "2024-03-31").
		WillReturnRows(rows)

	filter := entity.EntryFilter{Type: entity.EntryExpense, From: "2024-03-01", To: "2024-03-31"}
	list, err := s.ListEntries(context.Background(), "c1", filter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rent", list[0].Category)
}

func TestDeleteEntry(t *testing.T) {
	s, mock, done := setupTestDB(t)
	defer done()

	prep := mock.ExpectPrepare(regexp.QuoteMeta("DELETE FROM pa_ledger WHERE id = ? AND company_id = ?"))
	prep.ExpectExec().WithArgs("e-1", "c1").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("e-1", "c2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteEntry(context.Background(), "c1", "e-1"))
	assert.ErrorIs(t, s.DeleteEntry(context.Background(), "c2", "e-1"), entity.ErrNotFound)
}

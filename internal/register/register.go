// Package register writes invoice lists and ledger entries as XLSX workbooks.
package register

import (
	"fmt"
	"preacc/entity"

	"github.com/xuri/excelize/v2"
)

const (
	Sheet        = "Invoices"
	LedgerSheet  = "Ledger"
	SummarySheet = "Summary"
)

var Headers = []string{
	"Number",
	"Date",
	"Due Date",
	"Customer",
	"Tax Number",
	"Status",
	"Paid",
	"Currency",
	"Subtotal",
	"VAT",
	"Total",
}

var LedgerHeaders = []string{
	"Date",
	"Type",
	"Category",
	"Description",
	"Currency",
	"Amount",
}

var SummaryHeaders = []string{
	"Currency",
	"Income",
	"Expense",
	"Net",
	"Entries",
}

// Workbook returns the XLSX bytes, one row per invoice in the given order.
func Workbook(invoices []*entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		if inv == nil {
			continue
		}
		totals := inv.Totals()
		rows = append(rows, []interface{}{
			inv.InvoiceNumber,
			inv.InvoiceDate,
			inv.DueDate,
			inv.CustomerName,
			inv.TaxNumber,
			string(inv.Status),
			inv.Paid,
			inv.Currency,
			totals.Subtotal.Round(2).InexactFloat64(),
			totals.VatTotal.Round(2).InexactFloat64(),
			totals.GrandTotal.Round(2).InexactFloat64(),
		})
	}
	if err := writeSheet(f, Sheet, Headers, rows); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(Sheet, "A", "C", 14)
	_ = f.SetColWidth(Sheet, "D", "D", 32)
	_ = f.SetColWidth(Sheet, "E", "H", 14)
	_ = f.SetColWidth(Sheet, "I", "K", 14)

	return write(f)
}

// Ledger returns the entries sheet followed by per-currency totals.
func Ledger(entries []*entity.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		rows = append(rows, []interface{}{
			e.Date,
			string(e.Type),
			e.Category,
			e.Description,
			e.Currency,
			e.Value().Round(2).InexactFloat64(),
		})
	}
	if err := writeSheet(f, LedgerSheet, LedgerHeaders, rows); err != nil {
		return nil, err
	}

	balances := entity.Summarize(entries)
	totals := make([][]interface{}, 0, len(balances))
	for _, b := range balances {
		totals = append(totals, []interface{}{
			b.Currency,
			b.Income.Round(2).InexactFloat64(),
			b.Expense.Round(2).InexactFloat64(),
			b.Net.Round(2).InexactFloat64(),
			b.Entries,
		})
	}
	if err := writeSheet(f, SummarySheet, SummaryHeaders, totals); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(LedgerSheet, "A", "C", 14)
	_ = f.SetColWidth(LedgerSheet, "D", "D", 40)
	_ = f.SetColWidth(SummarySheet, "A", "E", 14)

	return write(f)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, values := range rows {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

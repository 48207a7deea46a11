package pdfdoc

import (
	"fmt"
	"preacc/entity"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Title = "INVOICE"

	// Company details are not part of the invoice record yet.
	companyName    = "From: Your Company Name"
	companyAddress = "Your Company Address"
)

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// FoldASCII replaces every rune outside printable ASCII with '?'.
func FoldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}

// Escape protects the PDF string delimiters. Apply after FoldASCII.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Lines returns the text of the document, one entry per drawn line, before
// folding and escaping.
func Lines(inv *entity.Invoice) []string {
	if inv == nil {
		inv = &entity.Invoice{}
	}
	lines := []string{
		Title,
		"Invoice Number: " + inv.InvoiceNumber,
		"Invoice Date: " + inv.InvoiceDate,
		"",
		companyName,
		companyAddress,
		"",
		"Bill To: " + inv.CustomerName,
		"Address: " + inv.CustomerAddress,
		fmt.Sprintf("Tax Office: %s / Tax Number: %s", inv.TaxOffice, inv.TaxNumber),
		"",
		"Line Items:",
	}
	for _, line := range inv.LineItems {
		if line == nil {
			continue
		}
		lines = append(lines, ItemLine(line))
	}
	totals := inv.Totals()
	lines = append(lines,
		"",
		"Subtotal: "+money(totals.Subtotal),
		"VAT Total: "+money(totals.VatTotal),
		"Grand Total: "+money(totals.GrandTotal),
	)
	return lines
}

func ItemLine(line *entity.InvoiceLine) string {
	return fmt.Sprintf("%s | Qty %s x %s | VAT %s%% | %s",
		line.Name,
		number(line.Quantity),
		money(entity.ToDecimal(line.UnitPrice)),
		number(line.VatRate),
		money(line.LineTotal()),
	)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// number prints the shortest decimal form: 6, 1.5, 20. Non-finite values
// print as 0, the same value the totals use.
func number(f float64) string {
	return entity.ToDecimal(f).String()
}

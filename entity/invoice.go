package entity

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"preacc/lib/validate"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid invoice state")
)

type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusIssued    InvoiceStatus = "ISSUED"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

const (
	DefaultCurrency = "USD"
	defaultFileName = "invoice.pdf"
	dateLayout      = "2006-01-02"
)

var hundred = decimal.NewFromInt(100)

type InvoiceLine struct {
	Name        string  `json:"name" bson:"name" validate:"required"`
	Description string  `json:"description,omitempty" bson:"description"`
	Quantity    float64 `json:"quantity" bson:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unit_price" bson:"unit_price" validate:"gte=0"`
	VatRate     float64 `json:"vat_rate" bson:"vat_rate"`
}

// LineTotal is quantity * unit price, VAT excluded.
func (l *InvoiceLine) LineTotal() decimal.Decimal {
	return ToDecimal(l.Quantity).Mul(ToDecimal(l.UnitPrice))
}

func (l *InvoiceLine) Vat() decimal.Decimal {
	return l.LineTotal().Mul(ToDecimal(l.VatRate)).Div(hundred)
}

// ToDecimal maps NaN and infinities to zero, decimal.NewFromFloat panics on them.
func ToDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

type Invoice struct {
	Id              string         `json:"id" bson:"id"`
	CompanyId       string         `json:"company_id" bson:"company_id"`
	InvoiceNumber   string         `json:"invoice_number" bson:"invoice_number" validate:"max=50"`
	InvoiceDate     string         `json:"invoice_date" bson:"invoice_date" validate:"required"`
	DueDate         string         `json:"due_date,omitempty" bson:"due_date"`
	Currency        string         `json:"currency" bson:"currency" validate:"omitempty,len=3"`
	CustomerName    string         `json:"customer_name" bson:"customer_name" validate:"required"`
	CustomerAddress string         `json:"customer_address" bson:"customer_address"`
	CustomerEmail   string         `json:"customer_email,omitempty" bson:"customer_email" validate:"omitempty,email"`
	CustomerCountry string         `json:"customer_country,omitempty" bson:"customer_country"`
	TaxOffice       string         `json:"tax_office" bson:"tax_office"`
	TaxNumber       string         `json:"tax_number" bson:"tax_number"`
	Status          InvoiceStatus  `json:"status" bson:"status"`
	LineItems       []*InvoiceLine `json:"line_items" bson:"line_items" validate:"dive"`
	Notes           string         `json:"notes,omitempty" bson:"notes"`
	Paid            bool           `json:"paid" bson:"paid"`
	PaidAt          time.Time      `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	PaymentLink     string         `json:"payment_link,omitempty" bson:"payment_link,omitempty"`
	SessionId       string         `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Created         time.Time      `json:"created" bson:"created"`
	Updated         time.Time      `json:"updated" bson:"updated"`
}

func (i *Invoice) Bind(_ *http.Request) error {
	if err := validate.Struct(i); err != nil {
		return err
	}
	return i.ValidateDates()
}

// ValidateDates rejects a due date earlier than the invoice date.
// Dates that do not parse are left to the caller; they are rendered verbatim.
func (i *Invoice) ValidateDates() error {
	if i.DueDate == "" {
		return nil
	}
	from, err := time.Parse(dateLayout, i.InvoiceDate)
	if err != nil {
		return nil
	}
	due, err := time.Parse(dateLayout, i.DueDate)
	if err != nil {
		return fmt.Errorf("due_date is not a valid date: %s", i.DueDate)
	}
	if due.Before(from) {
		return fmt.Errorf("due date cannot be before invoice date")
	}
	return nil
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	VatTotal   decimal.Decimal `json:"vat_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Totals is recomputed from the line items on every call.
func (i *Invoice) Totals() Totals {
	subtotal := decimal.Zero
	vat := decimal.Zero
	for _, line := range i.LineItems {
		if line == nil {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal())
		vat = vat.Add(line.Vat())
	}
	return Totals{
		Subtotal:   subtotal,
		VatTotal:   vat,
		GrandTotal: subtotal.Add(vat),
	}
}

// FileName is the download name for the encoded document.
func (i *Invoice) FileName() string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		case r == ' ' || r == '/' || r == '\\':
			return '_'
		}
		return -1
	}, strings.TrimSpace(i.InvoiceNumber))
	name = strings.Trim(name, ".")
	if name == "" {
		return defaultFileName
	}
	return name + ".pdf"
}

// Normalize fills server-side defaults on a new or replaced invoice.
func (i *Invoice) Normalize(now time.Time) {
	if i.InvoiceNumber == "" {
		i.InvoiceNumber = "INV-" + now.UTC().Format("20060102150405")
	}
	if i.Currency == "" {
		i.Currency = DefaultCurrency
	}
	i.Currency = strings.ToUpper(i.Currency)
	if i.LineItems == nil {
		i.LineItems = make([]*InvoiceLine, 0)
	}
}

func (i *Invoice) CountryCode() string {
	if i.CustomerCountry == "" {
		return ""
	}
	if len(i.CustomerCountry) == 2 {
		return strings.ToUpper(i.CustomerCountry)
	}
	code := countries.ByName(i.CustomerCountry).Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

func (i *Invoice) CanReplace() error {
	if i.Status != StatusDraft {
		return fmt.Errorf("%w: only draft invoices can be edited, status is %s", ErrInvalidState, i.Status)
	}
	return nil
}

func (i *Invoice) Issue() error {
	if i.Status != StatusDraft {
		return fmt.Errorf("%w: cannot issue invoice with status %s", ErrInvalidState, i.Status)
	}
	i.Status = StatusIssued
	return nil
}

func (i *Invoice) Cancel() error {
	if i.Status == StatusCancelled {
		return fmt.Errorf("%w: invoice is already cancelled", ErrInvalidState)
	}
	if i.Paid {
		return fmt.Errorf("%w: cannot cancel a paid invoice", ErrInvalidState)
	}
	i.Status = StatusCancelled
	return nil
}

func (i *Invoice) MarkPaid(at time.Time) error {
	if i.Status == StatusCancelled {
		return fmt.Errorf("%w: cannot mark a cancelled invoice as paid", ErrInvalidState)
	}
	if i.Paid {
		return fmt.Errorf("%w: invoice is already paid", ErrInvalidState)
	}
	if i.Status != StatusIssued {
		return fmt.Errorf("%w: only issued invoices can be paid, status is %s", ErrInvalidState, i.Status)
	}
	i.Paid = true
	i.PaidAt = at
	return nil
}

// CanPay checks that a payment link may be created for the invoice.
func (i *Invoice) CanPay() error {
	if i.Status != StatusIssued || i.Paid {
		return fmt.Errorf("%w: payment requires an issued unpaid invoice", ErrInvalidState)
	}
	if !i.Totals().GrandTotal.IsPositive() {
		return fmt.Errorf("%w: invoice total is zero", ErrInvalidState)
	}
	return nil
}

type InvoiceFilter struct {
	Status InvoiceStatus
	Unpaid bool
}

// ParseInvoiceFilter reads the status and unpaid query values; empty values match all.
func ParseInvoiceFilter(status, unpaid string) (InvoiceFilter, error) {
	var f InvoiceFilter
	if status != "" {
		f.Status = InvoiceStatus(strings.ToUpper(status))
		switch f.Status {
		case StatusDraft, StatusIssued, StatusCancelled:
		default:
			return f, fmt.Errorf("unknown status: %s", status)
		}
	}
	if unpaid != "" {
		v, err := strconv.ParseBool(unpaid)
		if err != nil {
			return f, fmt.Errorf("invalid unpaid value: %s", unpaid)
		}
		f.Unpaid = v
	}
	return f, nil
}

func (f InvoiceFilter) Match(inv *Invoice) bool {
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.Unpaid && (inv.Paid || inv.Status != StatusIssued) {
		return false
	}
	return true
}

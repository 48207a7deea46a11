package entity

import (
	"fmt"
	"net/http"
	"preacc/lib/validate"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryIncome  EntryType = "INCOME"
	EntryExpense EntryType = "EXPENSE"
)

// Entry is a single income or expense record of a company ledger.
type Entry struct {
	Id          string    `json:"id" bson:"id"`
	CompanyId   string    `json:"company_id" bson:"company_id"`
	Type        EntryType `json:"type" bson:"type" validate:"required,oneof=INCOME EXPENSE"`
	Category    string    `json:"category" bson:"category" validate:"required,max=64"`
	Amount      float64   `json:"amount" bson:"amount" validate:"gt=0"`
	Currency    string    `json:"currency" bson:"currency" validate:"omitempty,len=3"`
	Date        string    `json:"date" bson:"date" validate:"required"`
	Description string    `json:"description,omitempty" bson:"description" validate:"max=500"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated" bson:"updated"`
}

func (e *Entry) Bind(_ *http.Request) error {
	e.Type = EntryType(strings.ToUpper(strings.TrimSpace(string(e.Type))))
	if err := validate.Struct(e); err != nil {
		return err
	}
	return e.ValidateDate(time.Now().UTC())
}

// ValidateDate requires an ISO date not later than the day after now,
// leaving a day of slack for clients ahead of UTC.
func (e *Entry) ValidateDate(now time.Time) error {
	date, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return fmt.Errorf("date is not a valid date: %s", e.Date)
	}
	if date.After(now.AddDate(0, 0, 1)) {
		return fmt.Errorf("date cannot be in the future")
	}
	return nil
}

func (e *Entry) Normalize() {
	if e.Currency == "" {
		e.Currency = DefaultCurrency
	}
	e.Currency = strings.ToUpper(e.Currency)
	e.Category = strings.TrimSpace(e.Category)
}

func (e *Entry) Value() decimal.Decimal {
	return ToDecimal(e.Amount)
}

type EntryFilter struct {
	Type     EntryType
	Category string
	From     string
	To       string
}

// ParseEntryFilter reads the ledger query values; from and to are inclusive ISO dates.
func ParseEntryFilter(typ, category, from, to string) (EntryFilter, error) {
	f := EntryFilter{Category: strings.TrimSpace(category)}
	if typ != "" {
		f.Type = EntryType(strings.ToUpper(typ))
		if f.Type != EntryIncome && f.Type != EntryExpense {
			return f, fmt.Errorf("unknown entry type: %s", typ)
		}
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return f, fmt.Errorf("invalid date: %s", d)
		}
	}
	if from != "" && to != "" && to < from {
		return f, fmt.Errorf("period end %s is before start %s", to, from)
	}
	f.From = from
	f.To = to
	return f, nil
}

func (f EntryFilter) Match(e *Entry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	return true
}

// Balance holds the ledger totals of one currency.
type Balance struct {
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
	Entries  int             `json:"entries"`
}

// Summarize totals entries per currency, amounts in different currencies are never mixed.
func Summarize(entries []*Entry) []*Balance {
	byCurrency := make(map[string]*Balance)
	for _, e := range entries {
		if e == nil {
			continue
		}
		b, ok := byCurrency[e.Currency]
		if !ok {
			b = &Balance{Currency: e.Currency}
			byCurrency[e.Currency] = b
		}
		switch e.Type {
		case EntryIncome:
			b.Income = b.Income.Add(e.Value())
		case EntryExpense:
			b.Expense = b.Expense.Add(e.Value())
		}
		b.Entries++
	}
	list := make([]*Balance, 0, len(byCurrency))
	for _, b := range byCurrency {
		b.Net = b.Income.Sub(b.Expense)
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Currency < list[j].Currency })
	return list
}

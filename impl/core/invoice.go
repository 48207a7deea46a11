package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"preacc/bot"
	"preacc/entity"
	"preacc/internal/pdfdoc"
	"preacc/internal/register"
	"preacc/lib/sl"
	"time"

	"github.com/google/uuid"
)

var errNoCompany = errors.New("user has no company")

func companyOf(user *entity.User) (string, error) {
	if user == nil || user.CompanyId == "" {
		return "", errNoCompany
	}
	return user.CompanyId, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, entity.ErrNotFound)
}

func money(inv *entity.Invoice) string {
	return inv.Totals().GrandTotal.StringFixed(2)
}

// CreateInvoice stores a new draft owned by the user's company.
// Server-managed fields from the request body are ignored.
func (c *Core) CreateInvoice(ctx context.Context, user *entity.User, inv *entity.Invoice) (*entity.Invoice, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return nil, err
	}
	now := c.now()
	inv.Id = uuid.NewString()
	inv.CompanyId = companyId
	inv.Status = entity.StatusDraft
	inv.Paid = false
	inv.PaidAt = time.Time{}
	inv.PaymentLink = ""
	inv.SessionId = ""
	inv.Created = now
	inv.Updated = now
	inv.Normalize(now)

	if err = c.db.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	c.log.With(
		sl.Invoice(inv.Id, inv.InvoiceNumber),
		slog.String("company_id", companyId),
	).Info("invoice created")
	return inv, nil
}

// ReplaceInvoice overwrites the editable content of a draft invoice.
func (c *Core) ReplaceInvoice(ctx context.Context, user *entity.User, id string, body *entity.Invoice) (*entity.Invoice, error) {
	inv, err := c.GetInvoice(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err = inv.CanReplace(); err != nil {
		return nil, err
	}
	now := c.now()
	body.Id = inv.Id
	body.CompanyId = inv.CompanyId
	body.Status = inv.Status
	body.Paid = inv.Paid
	body.PaidAt = inv.PaidAt
	body.PaymentLink = inv.PaymentLink
	body.SessionId = inv.SessionId
	body.Created = inv.Created
	body.Updated = now
	body.Normalize(now)

	if err = c.db.SaveInvoice(ctx, body); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	return body, nil
}

func (c *Core) GetInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error) {
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
	return c.db.GetInvoice(ctx, companyId, id)
}

func (c *Core) ListInvoices(ctx context.Context, user *entity.User, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	companyId, err := companyOf(user)
	if err != nil {
		return nil, err
	}
	return c.db.ListInvoices(ctx, companyId, filter)
}

func (c *Core) IssueInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error) {
	inv, err := c.transition(ctx, user, id, func(inv *entity.Invoice) error { return inv.Issue() })
	if err != nil {
		return nil, err
	}
	c.notify(entity.TopicInvoice, "Invoice *%s* issued to %s: %s %s", inv.InvoiceNumber, inv.CustomerName, money(inv), inv.Currency)
	return inv, nil
}

func (c *Core) CancelInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error) {
	inv, err := c.transition(ctx, user, id, func(inv *entity.Invoice) error { return inv.Cancel() })
	if err != nil {
		return nil, err
	}
	c.notify(entity.TopicInvoice, "Invoice *%s* cancelled", inv.InvoiceNumber)
	return inv, nil
}

func (c *Core) MarkInvoicePaid(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error) {
	inv, err := c.transition(ctx, user, id, func(inv *entity.Invoice) error { return inv.MarkPaid(c.now()) })
	if err != nil {
		return nil, err
	}
	c.notify(entity.TopicPayment, "Invoice *%s* marked paid: %s %s", inv.InvoiceNumber, money(inv), inv.Currency)
	return inv, nil
}

func (c *Core) transition(ctx context.Context, user *entity.User, id string, apply func(*entity.Invoice) error) (*entity.Invoice, error) {
	inv, err := c.GetInvoice(ctx, user, id)
	if err != nil {
		return nil, err
	}
	from := inv.Status
	if err = apply(inv); err != nil {
		return nil, err
	}
	inv.Updated = c.now()
	if err = c.db.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	c.log.With(
		sl.Invoice(inv.Id, inv.InvoiceNumber),
		slog.String("from", string(from)),
		slog.String("to", string(inv.Status)),
		slog.Bool("paid", inv.Paid),
	).Info("invoice updated")
	return inv, nil
}

// InvoicePdf renders a stored invoice.
func (c *Core) InvoicePdf(ctx context.Context, user *entity.User, id string) ([]byte, *entity.FileMeta, error) {
	inv, err := c.GetInvoice(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	data, meta := c.RenderPdf(inv)
	return data, meta, nil
}

// RenderPdf renders an invoice body as given, nothing is stored.
func (c *Core) RenderPdf(inv *entity.Invoice) ([]byte, *entity.FileMeta) {
	data := pdfdoc.Encode(inv)
	meta := &entity.FileMeta{
		FileName:      inv.FileName(),
		ContentType:   entity.ContentTypePdf,
		ContentLength: int64(len(data)),
	}
	return data, meta
}

// InvoiceRegister exports the filtered invoice list as an XLSX workbook.
func (c *Core) InvoiceRegister(ctx context.Context, user *entity.User, filter entity.InvoiceFilter) ([]byte, *entity.FileMeta, error) {
	invoices, err := c.ListInvoices(ctx, user, filter)
	if err != nil {
		return nil, nil, err
	}
	data, err := register.Workbook(invoices)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	meta := &entity.FileMeta{
		FileName:      fmt.Sprintf("invoices-%s.xlsx", c.now().Format("20060102")),
		ContentType:   entity.ContentTypeXlsx,
		ContentLength: int64(len(data)),
	}
	return data, meta, nil
}

// InvoicePaymentLink creates a checkout link for an issued unpaid invoice
// and remembers the session so the webhook can find the invoice.
func (c *Core) InvoicePaymentLink(ctx context.Context, user *entity.User, id string) (*entity.Payment, error) {
	if c.ps == nil {
		return nil, fmt.Errorf("payment service not connected")
	}
	inv, err := c.GetInvoice(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err = inv.CanPay(); err != nil {
		return nil, err
	}
	pm, err := c.ps.PaymentLink(inv)
	if err != nil {
		return nil, fmt.Errorf("payment link: %w", err)
	}
	inv.PaymentLink = pm.Link
	inv.SessionId = pm.SessionId
	inv.Updated = c.now()
	if err = c.db.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	c.log.With(
		slog.String("invoice_id", inv.Id),
		slog.String("session_id", pm.SessionId),
		slog.Int64("amount", pm.Amount),
	).Info("payment link created")
	return pm, nil
}

func (c *Core) notify(topic, format string, args ...interface{}) {
	if c.ms == nil {
		return
	}
	for i, arg := range args {
		if s, ok := arg.(string); ok {
			args[i] = bot.Sanitize(s)
		}
	}
	c.ms.SendMessageWithTopic(fmt.Sprintf(format, args...), slog.LevelInfo, topic)
}

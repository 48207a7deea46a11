package core

import (
	"context"
	"fmt"
	"log/slog"
	"preacc/entity"
	"preacc/lib/sl"
	"time"

	"github.com/stripe/stripe-go/v76"
)

type Database interface {
	SaveInvoice(ctx context.Context, inv *entity.Invoice) error
	GetInvoice(ctx context.Context, companyId, id string) (*entity.Invoice, error)
	GetInvoiceBySession(ctx context.Context, sessionId string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context, companyId string, f entity.InvoiceFilter) ([]*entity.Invoice, error)
	SaveEntry(ctx context.Context, e *entity.Entry) error
	GetEntry(ctx context.Context, companyId, id string) (*entity.Entry, error)
	ListEntries(ctx context.Context, companyId string, f entity.EntryFilter) ([]*entity.Entry, error)
	DeleteEntry(ctx context.Context, companyId, id string) error
}

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

type PaymentService interface {
	PaymentLink(inv *entity.Invoice) (*entity.Payment, error)
	VerifySignature(payload []byte, header string, tolerance time.Duration) bool
	HandleEvent(evt *stripe.Event) *entity.PaymentEvent
}

type MessageService interface {
	SendMessageWithTopic(msg string, level slog.Level, topic string)
}

type Core struct {
	db   Database
	auth AuthService
	ps   PaymentService
	ms   MessageService
	now  func() time.Time
	log  *slog.Logger
}

func New(db Database, log *slog.Logger) *Core {
	return &Core{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetPaymentService(ps PaymentService) {
	c.ps = ps
}

func (c *Core) SetMessageService(ms MessageService) {
	c.ms = ms
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

func (c *Core) StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	if c.ps == nil {
		return false
	}
	return c.ps.VerifySignature(payload, header, tolerance)
}

// StripeEvent marks the invoice referenced by a completed checkout as paid.
// Unknown invoices and repeated deliveries are logged and ignored; only
// storage failures are returned so the provider retries the delivery.
func (c *Core) StripeEvent(ctx context.Context, evt *stripe.Event) error {
	if c.ps == nil {
		return fmt.Errorf("payment service not connected")
	}
	if c.db == nil {
		return fmt.Errorf("database not connected")
	}
	pe := c.ps.HandleEvent(evt)
	if pe == nil || !pe.Paid {
		return nil
	}
	log := c.log.With(
		slog.String("event_id", evt.ID),
		slog.String("invoice_id", pe.InvoiceId),
		slog.String("session_id", pe.SessionId),
	)

	inv, err := c.paymentInvoice(ctx, pe)
	if err != nil {
		if isNotFound(err) {
			log.Warn("paid invoice not found")
			return nil
		}
		return err
	}

	if err = inv.MarkPaid(c.now()); err != nil {
		log.With(sl.Err(err)).Warn("payment not applied")
		return nil
	}
	if inv.SessionId == "" {
		inv.SessionId = pe.SessionId
	}
	inv.Updated = c.now()
	if err = c.db.SaveInvoice(ctx, inv); err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	log.Info("invoice paid")
	c.notify(entity.TopicPayment, "Invoice *%s* paid: %s %s", inv.InvoiceNumber, money(inv), inv.Currency)
	return nil
}

func (c *Core) paymentInvoice(ctx context.Context, pe *entity.PaymentEvent) (*entity.Invoice, error) {
	if pe.InvoiceId != "" && pe.CompanyId != "" {
		inv, err := c.db.GetInvoice(ctx, pe.CompanyId, pe.InvoiceId)
		if err == nil || !isNotFound(err) || pe.SessionId == "" {
			return inv, err
		}
	}
	if pe.SessionId == "" {
		return nil, entity.ErrNotFound
	}
	return c.db.GetInvoiceBySession(ctx, pe.SessionId)
}

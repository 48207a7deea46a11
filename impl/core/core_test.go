package core

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"preacc/entity"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type memoryDB struct {
	mu       sync.Mutex
	invoices map[string]entity.Invoice
	entries  map[string]entity.Entry
	saves    int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		invoices: make(map[string]entity.Invoice),
		entries:  make(map[string]entity.Entry),
	}
}

func (m *memoryDB) SaveInvoice(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.Id] = *inv
	m.saves++
	return nil
}

func (m *memoryDB) GetInvoice(_ context.Context, companyId, id string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok || inv.CompanyId != companyId {
		return nil, entity.ErrNotFound
	}
	return &inv, nil
}

func (m *memoryDB) GetInvoiceBySession(_ context.Context, sessionId string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.SessionId == sessionId {
			return &inv, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *memoryDB) ListInvoices(_ context.Context, companyId string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*entity.Invoice, 0)
	for _, inv := range m.invoices {
		if inv.CompanyId == companyId && f.Match(&inv) {
			inv := inv
			list = append(list, &inv)
		}
	}
	return list, nil
}

func (m *memoryDB) SaveEntry(_ context.Context, e *entity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Id] = *e
	return nil
}

func (m *memoryDB) GetEntry(_ context.Context, companyId, id string) (*entity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.CompanyId != companyId {
		return nil, entity.ErrNotFound
	}
	return &e, nil
}

func (m *memoryDB) ListEntries(_ context.Context, companyId string, f entity.EntryFilter) ([]*entity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*entity.Entry, 0)
	for _, e := range m.entries {
		if e.CompanyId == companyId && f.Match(&e) {
			e := e
			list = append(list, &e)
		}
	}
	return list, nil
}

func (m *memoryDB) DeleteEntry(_ context.Context, companyId, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.CompanyId != companyId {
		return entity.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

type fakePayments struct {
	event *entity.PaymentEvent
	links int
}

func (f *fakePayments) PaymentLink(inv *entity.Invoice) (*entity.Payment, error) {
	f.links++
	return &entity.Payment{
		Amount:    inv.Totals().GrandTotal.Shift(2).IntPart(),
		Currency:  inv.Currency,
		InvoiceId: inv.Id,
		SessionId: "cs_test_1",
		Link:      "https://checkout.example/cs_test_1",
	}, nil
}

func (f *fakePayments) VerifySignature(_ []byte, header string, _ time.Duration) bool {
	return header == "valid"
}

func (f *fakePayments) HandleEvent(_ *stripe.Event) *entity.PaymentEvent {
	return f.event
}

type message struct {
	text  string
	topic string
}

type fakeMessenger struct {
	messages []message
}

func (f *fakeMessenger) SendMessageWithTopic(msg string, _ slog.Level, topic string) {
	f.messages = append(f.messages, message{text: msg, topic: topic})
}

var (
	alice = &entity.User{Username: "alice", CompanyId: "c1"}
	bob   = &entity.User{Username: "bob", CompanyId: "c2"}
	fixed = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
)

func newTestCore() (*Core, *memoryDB, *fakePayments, *fakeMessenger) {
	db := newMemoryDB()
	c := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return fixed }
	ps := &fakePayments{}
	ms := &fakeMessenger{}
	c.SetPaymentService(ps)
	c.SetMessageService(ms)
	return c, db, ps, ms
}

func draftBody() *entity.Invoice {
	return &entity.Invoice{
		InvoiceNumber: "INV-1",
		InvoiceDate:   "2024-03-15",
		CustomerName:  "Acme (Pty)",
		Currency:      "eur",
		LineItems: []*entity.InvoiceLine{
			{Name: "Consulting", Quantity: 6, UnitPrice: 450, VatRate: 20},
			{Name: "Hosting", Quantity: 1, UnitPrice: 900, VatRate: 20},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	c, db, _, _ := newTestCore()

	body := draftBody()
	body.Status = entity.StatusIssued
	body.Paid = true
	body.CompanyId = "c2"

	inv, err := c.CreateInvoice(context.Background(), alice, body)
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Id)
	assert.Equal(t, "c1", inv.CompanyId)
	assert.Equal(t, entity.StatusDraft, inv.Status)
	assert.False(t, inv.Paid)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, fixed, inv.Created)
	assert.Equal(t, 1, db.saves)
}

func TestCreateInvoiceWithoutCompany(t *testing.T) {
	c, _, _, _ := newTestCore()
	_, err := c.CreateInvoice(context.Background(), &entity.User{Username: "x"}, draftBody())
	assert.Error(t, err)
}

func TestTenantIsolation(t *testing.T) {
	c, _, _, _ := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	_, err = c.GetInvoice(ctx, bob, inv.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = c.IssueInvoice(ctx, bob, inv.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, _, err = c.InvoicePdf(ctx, bob, inv.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	list, err := c.ListInvoices(ctx, bob, entity.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = c.ListInvoices(ctx, alice, entity.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReplaceInvoice(t *testing.T) {
	c, _, _, _ := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	body := draftBody()
	body.CustomerName = "Globex"
	body.Status = entity.StatusCancelled
	replaced, err := c.ReplaceInvoice(ctx, alice, inv.Id, body)
	require.NoError(t, err)
	assert.Equal(t, inv.Id, replaced.Id)
	assert.Equal(t, "Globex", replaced.CustomerName)
	assert.Equal(t, entity.StatusDraft, replaced.Status)

	_, err = c.IssueInvoice(ctx, alice, inv.Id)
	require.NoError(t, err)
	_, err = c.ReplaceInvoice(ctx, alice, inv.Id, draftBody())
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestInvoiceLifecycle(t *testing.T) {
	c, _, _, ms := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	_, err = c.MarkInvoicePaid(ctx, alice, inv.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	issued, err := c.IssueInvoice(ctx, alice, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusIssued, issued.Status)

	paid, err := c.MarkInvoicePaid(ctx, alice, inv.Id)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, fixed, paid.PaidAt)

	_, err = c.CancelInvoice(ctx, alice, inv.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	require.Len(t, ms.messages, 2)
	assert.Equal(t, entity.TopicInvoice, ms.messages[0].topic)
	assert.Contains(t, ms.messages[0].text, "Acme \\(Pty\\)")
	assert.Contains(t, ms.messages[0].text, "4320\\.00")
	assert.Equal(t, entity.TopicPayment, ms.messages[1].topic)
}

func TestCancelInvoice(t *testing.T) {
	c, _, _, _ := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	cancelled, err := c.CancelInvoice(ctx, alice, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)

	_, err = c.CancelInvoice(ctx, alice, inv.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
	_, err = c.IssueInvoice(ctx, alice, inv.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestInvoicePdf(t *testing.T) {
	c, _, _, _ := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	data, meta, err := c.InvoicePdf(ctx, alice, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, "INV-1.pdf", meta.FileName)
	assert.Equal(t, entity.ContentTypePdf, meta.ContentType)
	assert.Equal(t, int64(len(data)), meta.ContentLength)
	assert.Contains(t, string(data), "Grand Total: 4320.00")
}

func TestRenderPdfUnsaved(t *testing.T) {
	c, db, _, _ := newTestCore()
	data, meta := c.RenderPdf(&entity.Invoice{})
	assert.Equal(t, "invoice.pdf", meta.FileName)
	assert.Equal(t, "%PDF-1.4\n", string(data[:9]))
	assert.Zero(t, db.saves)
}

func TestInvoiceRegister(t *testing.T) {
	c, _, _, _ := newTestCore()
	ctx := context.Background()

	_, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	data, meta, err := c.InvoiceRegister(ctx, alice, entity.InvoiceFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "invoices-20240315.xlsx", meta.FileName)
	assert.Equal(t, entity.ContentTypeXlsx, meta.ContentType)
}

func TestInvoicePaymentLink(t *testing.T) {
	c, db, ps, _ := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)

	_, err = c.InvoicePaymentLink(ctx, alice, inv.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
	assert.Zero(t, ps.links)

	_, err = c.IssueInvoice(ctx, alice, inv.Id)
	require.NoError(t, err)

	pm, err := c.InvoicePaymentLink(ctx, alice, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(432000), pm.Amount)

	stored, err := db.GetInvoice(ctx, "c1", inv.Id)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", stored.SessionId)
	assert.Equal(t, pm.Link, stored.PaymentLink)
}

func TestInvoicePaymentLinkNotConnected(t *testing.T) {
	c := New(newMemoryDB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.InvoicePaymentLink(context.Background(), alice, "x")
	assert.EqualError(t, err, "payment service not connected")
}

func TestStripeEvent(t *testing.T) {
	c, db, ps, ms := newTestCore()
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, alice, draftBody())
	require.NoError(t, err)
	_, err = c.IssueInvoice(ctx, alice, inv.Id)
	require.NoError(t, err)
	_, err = c.InvoicePaymentLink(ctx, alice, inv.Id)
	require.NoError(t, err)

	// metadata lost, lookup falls back to the session
	ps.event = &entity.PaymentEvent{SessionId: "cs_test_1", Paid: true}
	evt := &stripe.Event{ID: "evt_1", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	require.NoError(t, c.StripeEvent(ctx, evt))

	stored, err := db.GetInvoice(ctx, "c1", inv.Id)
	require.NoError(t, err)
	assert.True(t, stored.Paid)

	saves := db.saves
	require.NoError(t, c.StripeEvent(ctx, evt))
	assert.Equal(t, saves, db.saves)
	assert.Equal(t, entity.TopicPayment, ms.messages[len(ms.messages)-1].topic)
}

func TestStripeEventUnknownInvoice(t *testing.T) {
	c, db, ps, _ := newTestCore()
	ps.event = &entity.PaymentEvent{InvoiceId: "nope", CompanyId: "c1", Paid: true}
	require.NoError(t, c.StripeEvent(context.Background(), &stripe.Event{ID: "evt_2"}))
	assert.Zero(t, db.saves)

	ps.event = nil
	require.NoError(t, c.StripeEvent(context.Background(), &stripe.Event{ID: "evt_3"}))
}

func TestStripeVerifySignature(t *testing.T) {
	c, _, _, _ := newTestCore()
	assert.True(t, c.StripeVerifySignature(nil, "valid", time.Minute))
	assert.False(t, c.StripeVerifySignature(nil, "forged", time.Minute))

	bare := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, bare.StripeVerifySignature(nil, "valid", time.Minute))
}

func TestAuthenticateNotConnected(t *testing.T) {
	c, _, _, _ := newTestCore()
	_, err := c.AuthenticateByToken("x")
	assert.EqualError(t, err, "auth service not connected")
}

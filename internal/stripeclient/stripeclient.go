package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"preacc/entity"
	"preacc/internal/config"
	"preacc/lib/sl"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	metaInvoiceId = "invoice_id"
	metaCompanyId = "company_id"
)

type StripeClient struct {
	sc            *client.API
	webhookSecret string
	successUrl    string
	cancelUrl     string
	log           *slog.Logger
}

func New(conf *config.Config, logger *slog.Logger) *StripeClient {
	sc := &client.API{}
	sc.Init(conf.Stripe.APIKey, nil)
	return &StripeClient{
		sc:            sc,
		webhookSecret: conf.Stripe.WebhookSecret,
		successUrl:    conf.Stripe.SuccessURL,
		cancelUrl:     conf.Stripe.CancelURL,
		log:           logger.With(sl.Module("stripe")),
	}
}

// AmountCents converts the grand total to the smallest currency unit.
func AmountCents(inv *entity.Invoice) int64 {
	return inv.Totals().GrandTotal.Shift(2).Round(0).IntPart()
}

// PaymentLink creates a checkout session paying the invoice grand total.
func (s *StripeClient) PaymentLink(inv *entity.Invoice) (*entity.Payment, error) {
	amount := AmountCents(inv)
	log := s.log.With(
		slog.String("invoice_id", inv.Id),
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.Int64("amount", amount),
	)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.successUrl),
		ClientReferenceID: stripe.String(inv.Id),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(inv.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)),
					},
					UnitAmount: stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if s.cancelUrl != "" {
		params.CancelURL = stripe.String(s.cancelUrl)
	}
	params.AddMetadata(metaInvoiceId, inv.Id)
	params.AddMetadata(metaCompanyId, inv.CompanyId)

	if customerId := s.customer(inv); customerId != "" {
		params.Customer = stripe.String(customerId)
	} else if inv.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(inv.CustomerEmail)
	}

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		err = parseErr(err)
		log.Error("create checkout session", sl.Err(err))
		return nil, err
	}
	log.With(slog.String("session_id", sess.ID)).Debug("checkout session created")

	return &entity.Payment{
		Amount:    amount,
		Currency:  inv.Currency,
		InvoiceId: inv.Id,
		SessionId: sess.ID,
		Link:      sess.URL,
	}, nil
}

// customer registers the invoice customer when an address country is known,
// so the receipt carries the billing country.
func (s *StripeClient) customer(inv *entity.Invoice) string {
	country := inv.CountryCode()
	if country == "" {
		return ""
	}
	params := &stripe.CustomerParams{
		Name: stripe.String(inv.CustomerName),
		Address: &stripe.AddressParams{
			Country: stripe.String(country),
			Line1:   stripe.String(inv.CustomerAddress),
		},
	}
	if inv.CustomerEmail != "" {
		params.Email = stripe.String(inv.CustomerEmail)
	}
	cus, err := s.sc.Customers.New(params)
	if err != nil {
		s.log.With(
			slog.String("country", country),
			sl.Err(parseErr(err)),
		).Warn("create customer")
		return ""
	}
	return cus.ID
}

func (s *StripeClient) VerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	parts := strings.Split(header, ",")
	var ts, sig string
	for _, p := range parts {
		if strings.HasPrefix(p, "t=") {
			ts = strings.TrimPrefix(p, "t=")
		}
		if strings.HasPrefix(p, "v1=") {
			sig = strings.TrimPrefix(p, "v1=")
		}
	}
	if ts == "" || sig == "" {
		s.log.Warn("missing timestamp or signature in header")
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		s.log.With(sl.Err(err)).Warn("failed to parse timestamp")
		return false
	}

	eventTime := time.Unix(tsInt, 0)
	timeSince := time.Since(eventTime)
	if timeSince > tolerance {
		s.log.With(
			slog.Time("timestamp", eventTime),
			slog.Duration("age", timeSince),
			slog.Duration("tolerance", tolerance),
		).Warn("webhook timestamp too old")
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	isValid := hmac.Equal([]byte(expected), []byte(sig))
	if !isValid {
		s.log.With(sl.Secret("secret", s.webhookSecret)).Warn("signature mismatch")
	}
	return isValid
}

// HandleEvent maps a webhook event to a payment notification; events that
// do not concern invoices yield nil.
func (s *StripeClient) HandleEvent(evt *stripe.Event) *entity.PaymentEvent {
	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return s.handleCheckoutCompleted(evt)
	default:
		return nil
	}
}

func (s *StripeClient) handleCheckoutCompleted(evt *stripe.Event) *entity.PaymentEvent {
	log := s.log.With(
		slog.Any("event_type", evt.Type),
		slog.String("event_id", evt.ID),
	)
	if evt.Data == nil {
		log.Warn("event without data")
		return nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		log.Error("unmarshal checkout session", sl.Err(err))
		return nil
	}
	invoiceId := sess.Metadata[metaInvoiceId]
	if invoiceId == "" {
		invoiceId = sess.ClientReferenceID
	}
	if invoiceId == "" {
		log.With(slog.String("session_id", sess.ID)).Debug("session is not linked to an invoice")
		return nil
	}
	return &entity.PaymentEvent{
		InvoiceId: invoiceId,
		CompanyId: sess.Metadata[metaCompanyId],
		SessionId: sess.ID,
		Paid:      sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}

package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"preacc/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testSecret = "whsec_test"

func testClient() *StripeClient {
	return &StripeClient{
		webhookSecret: testSecret,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sign(payload []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	s := testClient()
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now().Unix()

	assert.True(t, s.VerifySignature(payload, sign(payload, now, testSecret), 5*time.Minute))
	assert.False(t, s.VerifySignature(payload, sign(payload, now, "other"), 5*time.Minute))
	assert.False(t, s.VerifySignature([]byte(`{}`), sign(payload, now, testSecret), 5*time.Minute))
	assert.False(t, s.VerifySignature(payload, sign(payload, now-3600, testSecret), 5*time.Minute))
	assert.False(t, s.VerifySignature(payload, "", 5*time.Minute))
	assert.False(t, s.VerifySignature(payload, "t=abc,v1=00", 5*time.Minute))
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	s := testClient()
	evt := &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{
			Raw: []byte(`{"id":"cs_1","object":"checkout.session","payment_status":"paid","metadata":{"invoice_id":"inv-1","company_id":"c1"}}`),
		},
	}

	pe := s.HandleEvent(evt)
	require.NotNil(t, pe)
	assert.Equal(t, "inv-1", pe.InvoiceId)
	assert.Equal(t, "c1", pe.CompanyId)
	assert.Equal(t, "cs_1", pe.SessionId)
	assert.True(t, pe.Paid)
}

func TestHandleEventIgnored(t *testing.T) {
	s := testClient()

	assert.Nil(t, s.HandleEvent(&stripe.Event{Type: stripe.EventTypeCustomerCreated}))

	unlinked := &stripe.Event{
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: []byte(`{"id":"cs_2","payment_status":"paid"}`)},
	}
	assert.Nil(t, s.HandleEvent(unlinked))
}

func TestAmountCents(t *testing.T) {
	inv := &entity.Invoice{LineItems: []*entity.InvoiceLine{
		{Name: "a", Quantity: 6, UnitPrice: 450, VatRate: 20},
		{Name: "c", Quantity: 1, UnitPrice: 900, VatRate: 20},
		{Name: "b", Quantity: 1, UnitPrice: 0.105, VatRate: 0},
	}}
	assert.Equal(t, int64(432011), AmountCents(inv))
}

func TestParseErr(t *testing.T) {
	se := &stripe.Error{HTTPStatusCode: 400, Param: "line_items[0][price_data][currency]", Msg: "Invalid currency: xyz"}
	assert.EqualError(t, parseErr(se), "stripe status 400: line_items[0][price_data][currency]: Invalid currency: xyz")

	raw := errors.New(`{"status":402,"message":"Your card was declined.","type":"card_error"}`)
	assert.EqualError(t, parseErr(raw), "stripe status 402: Your card was declined.")

	plain := errors.New("connection reset")
	assert.Equal(t, plain, parseErr(plain))
}

package stripehandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"preacc/lib/sl"
	"time"

	"github.com/stripe/stripe-go/v76"
)

const maxBodyBytes = int64(65536)

type Core interface {
	StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool
	StripeEvent(ctx context.Context, evt *stripe.Event) error
}

func Event(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const tolerance = 5 * time.Minute
		log := logger.With(
			sl.Module("http.handlers.stripe"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if handler == nil {
			log.Error("stripe service not available")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			log.Error("read request body", sl.Err(err))
			http.Error(w, "read", http.StatusBadRequest)
			return
		}

		sig := r.Header.Get("Stripe-Signature")
		if !handler.StripeVerifySignature(payload, sig, tolerance) {
			log.Error("invalid webhook signature")
			http.Error(w, "signature", http.StatusBadRequest)
			return
		}

		var evt stripe.Event
		if err = json.Unmarshal(payload, &evt); err != nil {
			log.Error("unmarshal event", sl.Err(err))
			http.Error(w, "json", http.StatusBadRequest)
			return
		}

		log = log.With(
			slog.String("event_id", evt.ID),
			slog.Any("type", evt.Type),
		)

		if err = handler.StripeEvent(r.Context(), &evt); err != nil {
			log.Error("handle event", sl.Err(err))
			http.Error(w, "event", http.StatusInternalServerError)
			return
		}
		log.Debug("event handled")

		w.WriteHeader(http.StatusOK)
	}
}

package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"preacc/entity"
	"preacc/lib/api/cont"
	"preacc/lib/api/response"
	"preacc/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	InvoicePaymentLink(ctx context.Context, user *entity.User, id string) (*entity.Payment, error)
}

// Pay creates a checkout link for the invoice named in the path.
func Pay(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.payment")
		invoiceId := chi.URLParam(r, "id")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("invoice_id", invoiceId),
		)

		if handler == nil {
			logger.Error("stripe service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Stripe service not available"))
			return
		}

		pm, err := handler.InvoicePaymentLink(r.Context(), cont.GetUser(r.Context()), invoiceId)
		if err != nil {
			logger.Error("get payment link", sl.Err(err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Get link: %v", err)))
			return
		}
		logger.With(
			slog.String("session_id", pm.SessionId),
			slog.Int64("amount", pm.Amount),
		).Debug("payment link created")

		render.JSON(w, r, response.Ok(pm))
	}
}

package invoice

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
	CreateInvoice(ctx context.Context, user *entity.User, inv *entity.Invoice) (*entity.Invoice, error)
	ReplaceInvoice(ctx context.Context, user *entity.User, id string, inv *entity.Invoice) (*entity.Invoice, error)
	GetInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context, user *entity.User, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	IssueInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error)
	CancelInvoice(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error)
	MarkInvoicePaid(ctx context.Context, user *entity.User, id string) (*entity.Invoice, error)
	InvoicePdf(ctx context.Context, user *entity.User, id string) ([]byte, *entity.FileMeta, error)
	RenderPdf(inv *entity.Invoice) ([]byte, *entity.FileMeta)
}

// Action is a status change applied to a stored invoice.
type Action func(core Core, ctx context.Context, user *entity.User, id string) (*entity.Invoice, error)

var (
	Issue    Action = Core.IssueInvoice
	Cancel   Action = Core.CancelInvoice
	MarkPaid Action = Core.MarkInvoicePaid
)

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.invoice"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user", cont.GetUser(r.Context()).Username),
	)
}

func notAvailable(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	log.Error("invoice service not available")
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, response.Error("Invoice service not available"))
}

func failed(w http.ResponseWriter, r *http.Request, log *slog.Logger, message string, err error) {
	status := response.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error(message, sl.Err(err))
	} else {
		log.Warn(message, sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(fmt.Sprintf("%s: %v", message, err)))
}

func bind(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*entity.Invoice, bool) {
	var inv entity.Invoice
	if err := render.Bind(r, &inv); err != nil {
		log.Warn("bind request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
		return nil, false
	}
	return &inv, true
}

func Create(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		body, ok := bind(w, r, log)
		if !ok {
			return
		}

		inv, err := handler.CreateInvoice(r.Context(), cont.GetUser(r.Context()), body)
		if err != nil {
			failed(w, r, log, "Create invoice", err)
			return
		}
		log.With(slog.String("invoice_id", inv.Id)).Debug("invoice created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(inv))
	}
}

func Replace(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("invoice_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		body, ok := bind(w, r, log)
		if !ok {
			return
		}

		inv, err := handler.ReplaceInvoice(r.Context(), cont.GetUser(r.Context()), id, body)
		if err != nil {
			failed(w, r, log, "Replace invoice", err)
			return
		}

		render.JSON(w, r, response.Ok(inv))
	}
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("invoice_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		inv, err := handler.GetInvoice(r.Context(), cont.GetUser(r.Context()), id)
		if err != nil {
			failed(w, r, log, "Get invoice", err)
			return
		}

		render.JSON(w, r, response.Ok(inv))
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		query := r.URL.Query()
		filter, err := entity.ParseInvoiceFilter(query.Get("status"), query.Get("unpaid"))
		if err != nil {
			log.Warn("invalid filter", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		invoices, err := handler.ListInvoices(r.Context(), cont.GetUser(r.Context()), filter)
		if err != nil {
			failed(w, r, log, "List invoices", err)
			return
		}
		log.With(slog.Int("count", len(invoices))).Debug("invoices listed")

		render.JSON(w, r, response.Ok(invoices))
	}
}

// Status applies a lifecycle action to the invoice named in the path.
func Status(logger *slog.Logger, handler Core, action Action, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(
			slog.String("invoice_id", id),
			slog.String("action", name),
		)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		inv, err := action(handler, r.Context(), cont.GetUser(r.Context()), id)
		if err != nil {
			failed(w, r, log, fmt.Sprintf("Invoice %s", name), err)
			return
		}

		render.JSON(w, r, response.Ok(inv))
	}
}

func Download(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("invoice_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		data, meta, err := handler.InvoicePdf(r.Context(), cont.GetUser(r.Context()), id)
		if err != nil {
			failed(w, r, log, "Invoice pdf", err)
			return
		}

		if err = response.Attachment(w, data, meta); err != nil {
			log.Error("write file", sl.Err(err))
		}
	}
}

// Render encodes a posted invoice body without storing it.
func Render(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		body, ok := bind(w, r, log)
		if !ok {
			return
		}

		data, meta := handler.RenderPdf(body)
		if err := response.Attachment(w, data, meta); err != nil {
			log.Error("write file", sl.Err(err))
		}
	}
}

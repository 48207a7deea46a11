package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"preacc/entity"
	"preacc/lib/api/cont"
	"preacc/lib/api/response"
	"preacc/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	InvoiceRegister(ctx context.Context, user *entity.User, filter entity.InvoiceFilter) ([]byte, *entity.FileMeta, error)
}

// Register downloads the invoice register as an XLSX workbook.
func Register(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.report"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("report service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Report service not available"))
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

		data, meta, err := handler.InvoiceRegister(r.Context(), cont.GetUser(r.Context()), filter)
		if err != nil {
			log.Error("invoice register", sl.Err(err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}

		if err = response.Attachment(w, data, meta); err != nil {
			log.Error("write file", sl.Err(err))
		}
	}
}

package ledger

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
	CreateEntry(ctx context.Context, user *entity.User, e *entity.Entry) (*entity.Entry, error)
	ReplaceEntry(ctx context.Context, user *entity.User, id string, e *entity.Entry) (*entity.Entry, error)
	GetEntry(ctx context.Context, user *entity.User, id string) (*entity.Entry, error)
	ListEntries(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]*entity.Entry, error)
	DeleteEntry(ctx context.Context, user *entity.User, id string) error
	LedgerSummary(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]*entity.Balance, error)
	LedgerRegister(ctx context.Context, user *entity.User, filter entity.EntryFilter) ([]byte, *entity.FileMeta, error)
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.ledger"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user", cont.GetUser(r.Context()).Username),
	)
}

func notAvailable(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	log.Error("ledger service not available")
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, response.Error("Ledger service not available"))
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

func badRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Warn("bad request", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
}

func filter(r *http.Request) (entity.EntryFilter, error) {
	query := r.URL.Query()
	return entity.ParseEntryFilter(query.Get("type"), query.Get("category"), query.Get("from"), query.Get("to"))
}

func Create(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		var body entity.Entry
		if err := render.Bind(r, &body); err != nil {
			badRequest(w, r, log, err)
			return
		}

		e, err := handler.CreateEntry(r.Context(), cont.GetUser(r.Context()), &body)
		if err != nil {
			failed(w, r, log, "Create entry", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(e))
	}
}

func Replace(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("entry_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		var body entity.Entry
		if err := render.Bind(r, &body); err != nil {
			badRequest(w, r, log, err)
			return
		}

		e, err := handler.ReplaceEntry(r.Context(), cont.GetUser(r.Context()), id, &body)
		if err != nil {
			failed(w, r, log, "Replace entry", err)
			return
		}

		render.JSON(w, r, response.Ok(e))
	}
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("entry_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		e, err := handler.GetEntry(r.Context(), cont.GetUser(r.Context()), id)
		if err != nil {
			failed(w, r, log, "Get entry", err)
			return
		}

		render.JSON(w, r, response.Ok(e))
	}
}

func Delete(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("entry_id", id))
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		if err := handler.DeleteEntry(r.Context(), cont.GetUser(r.Context()), id); err != nil {
			failed(w, r, log, "Delete entry", err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		f, err := filter(r)
		if err != nil {
			badRequest(w, r, log, err)
			return
		}

		entries, err := handler.ListEntries(r.Context(), cont.GetUser(r.Context()), f)
		if err != nil {
			failed(w, r, log, "List entries", err)
			return
		}
		log.With(slog.Int("count", len(entries))).Debug("entries listed")

		render.JSON(w, r, response.Ok(entries))
	}
}

// Summary returns income, expense and net per currency for the filtered period.
func Summary(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		f, err := filter(r)
		if err != nil {
			badRequest(w, r, log, err)
			return
		}

		balances, err := handler.LedgerSummary(r.Context(), cont.GetUser(r.Context()), f)
		if err != nil {
			failed(w, r, log, "Ledger summary", err)
			return
		}

		render.JSON(w, r, response.Ok(balances))
	}
}

func Export(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		if handler == nil {
			notAvailable(w, r, log)
			return
		}

		f, err := filter(r)
		if err != nil {
			badRequest(w, r, log, err)
			return
		}

		data, meta, err := handler.LedgerRegister(r.Context(), cont.GetUser(r.Context()), f)
		if err != nil {
			failed(w, r, log, "Ledger export", err)
			return
		}

		if err = response.Attachment(w, data, meta); err != nil {
			log.Error("write file", sl.Err(err))
		}
	}
}

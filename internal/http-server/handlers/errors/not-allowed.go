package errors

import (
	"log/slog"
	"net/http"
	"preacc/lib/api/response"

	"github.com/go-chi/render"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		).Debug("method not allowed")

		render.Status(r, 405)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}

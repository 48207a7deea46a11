package errors

import (
	"log/slog"
	"net/http"
	"preacc/lib/api/response"

	"github.com/go-chi/render"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		).Debug("resource not found")

		render.Status(r, 404)
		render.JSON(w, r, response.Error("Requested resource not found"))
	}
}

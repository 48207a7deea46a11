package timeout

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context; seconds <= 0 falls back to five seconds.
func Timeout(seconds int) func(next http.Handler) http.Handler {
	if seconds <= 0 {
		seconds = 5
	}
	timeout := time.Duration(seconds) * time.Second
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

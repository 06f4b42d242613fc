package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the context of every request. Catalog and storage calls
// observe the deadline; the handler keeps its goroutine and renders the
// resulting error itself. A zero timeout disables the middleware.
func Timeout(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

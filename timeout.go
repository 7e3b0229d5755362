package rpc

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds the request context by d. When the
// deadline passes and the handler has written nothing, a 503 problem is
// sent. Handlers must honor context cancellation for the deadline to take
// effect.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			res := Observe(w)
			next.ServeHTTP(res, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !res.wroteHeader {
				writeErrorResponse(res, Error(http.StatusServiceUnavailable, "request timed out"))
			}
		})
	}
}

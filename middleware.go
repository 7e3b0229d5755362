package rpc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware is the standard middleware signature compatible with the entire
// Go middleware ecosystem.
type Middleware func(next http.Handler) http.Handler

// Recovery returns middleware that recovers from panics and responds with a
// 500 problem. A nil logger uses slog.Default.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := Observe(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				attrs := []slog.Attr{
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				if key, ok := res.Route(); ok {
					attrs = append(attrs, slog.String("route", key.Pattern))
				}
				logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered", attrs...)

				if res.wroteHeader {
					return
				}
				writeErrorResponse(res, Internal(fmt.Sprint(rec)))
			}()
			next.ServeHTTP(res, r)
		})
	}
}

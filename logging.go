package rpc

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// LoggerConfig configures the Logger middleware.
type LoggerConfig struct {
	// Level is used for 2xx and 3xx responses. 4xx log at Warn, 5xx at Error.
	Level slog.Level
	// SkipPaths are request paths that are never logged, e.g. health checks.
	SkipPaths []string
	// Headers lists request headers to include. Credentials are redacted.
	Headers []string
}

// redacted are headers whose values are never logged.
var redacted = []string{"Authorization", "Cookie", "Proxy-Authorization", "X-Api-Key"}

// Logger returns middleware that logs each request using the provided
// slog.Logger. Requests served by a registered route carry the route
// pattern, so "/posts/42" and "/posts/43" log under "/posts/:postId".
func Logger(logger *slog.Logger, cfg ...LoggerConfig) Middleware {
	var c LoggerConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(c.SkipPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			res := Observe(w)
			next.ServeHTTP(res, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", res.StatusCode()),
				slog.Duration("latency", time.Since(start)),
				slog.Int("size", res.Size()),
				slog.String("remote", r.RemoteAddr),
			}
			if key, ok := res.Route(); ok {
				attrs = append(attrs, slog.String("route", key.Pattern))
			}
			if id := requestIDOf(r, res); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if len(c.Headers) > 0 {
				attrs = append(attrs, headerAttrs(r.Header, c.Headers))
			}

			logger.LogAttrs(r.Context(), levelFor(res.StatusCode(), c.Level), "request", attrs...)
		})
	}
}

// requestIDOf finds the request ID whether RequestID runs inside or
// outside the logger.
func requestIDOf(r *http.Request, res *Response) string {
	if id := GetRequestID(r); id != "" {
		return id
	}
	return res.Header().Get("X-Request-ID")
}

func levelFor(status int, base slog.Level) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return max(base, slog.LevelWarn)
	default:
		return base
	}
}

func headerAttrs(h http.Header, names []string) slog.Attr {
	attrs := make([]any, 0, len(names))
	for _, name := range names {
		val := h.Get(name)
		if val == "" {
			continue
		}
		if slices.ContainsFunc(redacted, func(s string) bool { return strings.EqualFold(s, name) }) {
			val = "[REDACTED]"
		}
		attrs = append(attrs, slog.String(http.CanonicalHeaderKey(name), val))
	}
	return slog.Group("headers", attrs...)
}

package rpc

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// requestID is the context type carrying the request ID.
type requestID string

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	Header    string        // default: "X-Request-ID"
	Generator func() string // default: random hex
}

// RequestID returns middleware that assigns a unique request ID to each
// request. An incoming header value is kept; otherwise one is generated.
// The ID is echoed on the response.
func RequestID(cfg ...RequestIDConfig) Middleware {
	c := RequestIDConfig{
		Header:    "X-Request-ID",
		Generator: randomID,
	}
	if len(cfg) > 0 {
		if cfg[0].Header != "" {
			c.Header = cfg[0].Header
		}
		if cfg[0].Generator != nil {
			c.Generator = cfg[0].Generator
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(c.Header)
			if id == "" {
				id = c.Generator()
			}
			w.Header().Set(c.Header, id)
			next.ServeHTTP(w, SetValue(r, requestID(id)))
		})
	}
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) string {
	id, _ := GetValue[requestID](r.Context())
	return string(id)
}

func randomID() string {
	b := make([]byte, 16)
	//nolint:errcheck,gosec // crypto/rand.Read always returns nil error
	rand.Read(b)
	return hex.EncodeToString(b)
}

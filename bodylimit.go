package rpc

import "net/http"

// BodyLimit returns middleware that limits the maximum request body size.
// Typed handlers answer an oversized body with 413 Payload Too Large.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErrorResponse(w, Error(http.StatusRequestEntityTooLarge, "request body too large"))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

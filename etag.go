package rpc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// ETagConfig configures the ETag middleware.
type ETagConfig struct {
	Weak bool // use weak ETags
}

// ETag returns middleware that tags successful GET and HEAD responses with
// a hash of their body and answers a matching If-None-Match with 304. The
// response is buffered, so it suits small JSON bodies.
func ETag(cfg ...ETagConfig) Middleware {
	var c ETagConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			buf := &etagBuffer{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(buf, r)

			if buf.status < 200 || buf.status > 299 {
				buf.flush(buf.status)
				return
			}

			sum := sha256.Sum256(buf.body.Bytes())
			etag := `"` + hex.EncodeToString(sum[:8]) + `"`
			if c.Weak {
				etag = "W/" + etag
			}
			w.Header().Set("ETag", etag)

			if noneMatch(r.Header.Get("If-None-Match"), etag) {
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)
				return
			}
			buf.flush(buf.status)
		})
	}
}

// noneMatch reports whether an If-None-Match header matches etag, using
// weak comparison.
func noneMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for tag := range strings.SplitSeq(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}

// etagBuffer holds the status and body until the ETag is known.
type etagBuffer struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (e *etagBuffer) WriteHeader(code int) {
	e.status = code
}

func (e *etagBuffer) Write(b []byte) (int, error) {
	return e.body.Write(b)
}

// Unwrap returns the underlying ResponseWriter.
func (e *etagBuffer) Unwrap() http.ResponseWriter {
	return e.ResponseWriter
}

func (e *etagBuffer) flush(status int) {
	e.ResponseWriter.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write
	e.ResponseWriter.Write(e.body.Bytes())
}

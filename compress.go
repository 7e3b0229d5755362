package rpc

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressConfig configures the Compress middleware.
type CompressConfig struct {
	Level   int      // gzip level (1-9, default: gzip.DefaultCompression)
	MinSize int      // minimum first write to compress (default: 1024)
	Types   []string // content type prefixes to compress (default: application/json, application/problem+json, text/)
}

// Compress returns middleware that gzip-compresses responses. The decision
// is made on the first body write: the Content-Type must match and the
// write must reach MinSize.
func Compress(cfg ...CompressConfig) Middleware {
	c := CompressConfig{
		Level:   gzip.DefaultCompression,
		MinSize: 1024,
		Types:   []string{"application/json", "application/problem+json", "application/yaml", "text/"},
	}
	if len(cfg) > 0 {
		if cfg[0].Level > 0 {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		if len(cfg[0].Types) > 0 {
			c.Types = cfg[0].Types
		}
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, c.Level) //nolint:errcheck // level is pre-validated
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gw := &gzipWriter{ResponseWriter: w, cfg: &c, pool: pool}
			defer gw.finish()
			next.ServeHTTP(gw, r)
		})
	}
}

// gzipWriter defers WriteHeader until the first body write so the
// compression decision can still change the headers.
type gzipWriter struct {
	http.ResponseWriter
	cfg  *CompressConfig
	pool *sync.Pool

	gz      *gzip.Writer
	status  int
	decided bool
}

func (g *gzipWriter) WriteHeader(code int) {
	if g.status == 0 {
		g.status = code
	}
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if !g.decided {
		g.decide(len(b))
	}
	if g.gz != nil {
		return g.gz.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

// Flush flushes compressed data and the underlying writer.
func (g *gzipWriter) Flush() {
	if g.gz != nil {
		//nolint:errcheck,gosec // best-effort flush
		g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter (supports http.ResponseController).
func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

func (g *gzipWriter) decide(size int) {
	g.decided = true
	h := g.Header()
	if size >= g.cfg.MinSize && h.Get("Content-Encoding") == "" && g.compressible(h.Get("Content-Type")) {
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
		gz := g.pool.Get().(*gzip.Writer) //nolint:errcheck,forcetypeassert // pool.New always returns *gzip.Writer
		gz.Reset(g.ResponseWriter)
		g.gz = gz
	}
	if g.status == 0 {
		g.status = http.StatusOK
	}
	g.ResponseWriter.WriteHeader(g.status)
}

func (g *gzipWriter) compressible(contentType string) bool {
	if strings.Contains(contentType, "event-stream") {
		return false
	}
	for _, t := range g.cfg.Types {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// finish flushes a pending header for bodiless responses and returns the
// gzip writer to the pool.
func (g *gzipWriter) finish() {
	if !g.decided {
		if g.status != 0 {
			g.ResponseWriter.WriteHeader(g.status)
		}
		return
	}
	if g.gz != nil {
		//nolint:errcheck,gosec // best-effort flush
		g.gz.Close()
		g.pool.Put(g.gz)
	}
}

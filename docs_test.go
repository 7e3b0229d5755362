package rpc_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
)

func TestRouter_ServeDocs(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	r.ServeDocs("/docs", rpc.WithDocsSpec("/spec.json"), rpc.WithDocsContract("/contract.json"))

	rec := serve(t, r, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Posts</title>")
	assert.Contains(t, rec.Body.String(), `apiDescriptionUrl="/spec.json"`)
	assert.Contains(t, rec.Body.String(), `href="/contract.json"`)

	assert.Equal(t, 4, r.Contract().Len())
}

func TestRouter_ServeDocs_title(t *testing.T) {
	t.Parallel()

	r := rpc.New()
	r.ServeDocs("/docs", rpc.WithDocsTitle("<Posts API>"))

	rec := serve(t, r, http.MethodGet, "/docs", nil)
	assert.Contains(t, rec.Body.String(), "<title>&lt;Posts API&gt;</title>")
	assert.Contains(t, rec.Body.String(), `apiDescriptionUrl="/openapi.json"`)
	assert.NotContains(t, rec.Body.String(), "contract</a>")
}

func TestRouter_ServePprof(t *testing.T) {
	t.Parallel()

	r := rpc.New()
	r.ServePprof("")

	rec := serve(t, r, http.MethodGet, "/debug/pprof/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, r, http.MethodGet, "/debug/pprof/goroutine?debug=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine profile")

	assert.Zero(t, r.Contract().Len())
}

func TestRouter_Mount(t *testing.T) {
	t.Parallel()

	r := rpc.New()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Wrapped", "1")
			next.ServeHTTP(w, req)
		})
	})
	r.Mount("GET /metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("up 1\n"))
	}))

	rec := serve(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up 1\n", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Wrapped"))
	assert.Zero(t, r.Contract().Len())
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
	"github.com/bjaus/rpc/internal/config"
	"github.com/bjaus/rpc/internal/posts"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:           ":0",
		LogLevel:       "info",
		RequestTimeout: 5 * time.Second,
		BodyLimit:      1 << 20,
		RateLimit:      100,
		RateBurst:      100,
		CORSOrigins:    []string{"https://app.example"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	r := newRouter(logger, posts.NewMemoryStore())
	r.Use(middleware(testConfig(), logger, reg)...)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reg
}

// get fetches path without following redirects. header holds key, value
// pairs.
func get(t *testing.T, srv *httptest.Server, path string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	client := *srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_endpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	tests := map[string]struct {
		path       string
		wantStatus int
		wantType   string
	}{
		"health":        {path: "/api/health", wantStatus: http.StatusOK, wantType: "application/json"},
		"list":          {path: "/api/posts", wantStatus: http.StatusOK, wantType: "application/json"},
		"trailing":      {path: "/api/posts/", wantStatus: http.StatusMovedPermanently},
		"missing post":  {path: "/api/posts/9", wantStatus: http.StatusNotFound, wantType: "application/problem+json"},
		"contract":      {path: "/contract.json", wantStatus: http.StatusOK, wantType: "application/json"},
		"contract yaml": {path: "/contract.yaml", wantStatus: http.StatusOK},
		"spec":          {path: "/openapi.json", wantStatus: http.StatusOK, wantType: "application/json"},
		"docs":          {path: "/docs", wantStatus: http.StatusOK, wantType: "text/html; charset=utf-8"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp := get(t, srv, tc.path)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantType != "" {
				assert.Equal(t, tc.wantType, resp.Header.Get("Content-Type"))
			}
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		})
	}
}

func TestServer_contract(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp := get(t, srv, "/contract.json")
	c, err := rpc.ReadContract(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Posts", c.Title)
	assert.Equal(t, version, c.Version)
	assert.Equal(t, 6, c.Len())

	d, ok := c.Lookup("GET", "/api/posts")
	require.True(t, ok)
	assert.Equal(t, []string{"posts"}, d.Tags)
}

func TestServer_cors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp := get(t, srv, "/api/posts", "Origin", "https://app.example")
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = get(t, srv, "/api/posts", "Origin", "https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_metrics(t *testing.T) {
	t.Parallel()

	srv, reg := newTestServer(t)

	get(t, srv, "/api/posts/1")
	get(t, srv, "/api/posts/2")

	n, err := testutil.GatherAndCount(reg, "posts_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expected := `
# HELP posts_requests_total Requests served, by method, route pattern and status.
# TYPE posts_requests_total counter
posts_requests_total{method="GET",route="/api/posts/:postId",status="404"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "posts_requests_total"))
}

func TestWriteDoc(t *testing.T) {
	t.Parallel()

	r := newRouter(slog.Default(), posts.NewMemoryStore())
	path := filepath.Join(t.TempDir(), "contract.yaml")
	require.NoError(t, writeDoc(r.WriteContractYAML, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	c, err := rpc.ReadContract(f)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
}

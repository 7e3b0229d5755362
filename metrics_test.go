package rpc_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	r := rpc.New()
	r.Use(rpc.Metrics(rpc.MetricsConfig{Namespace: "posts", Registerer: reg}))
	rpc.Get(r, "/posts/:postId", func(_ context.Context, req *getPostReq) (*post, error) {
		if req.PostID == "missing" {
			return nil, rpc.NotFound("missing")
		}
		return &post{ID: req.PostID}, nil
	})

	serve(t, r, http.MethodGet, "/posts/1", nil)
	serve(t, r, http.MethodGet, "/posts/2", nil)
	serve(t, r, http.MethodGet, "/posts/missing", nil)
	serve(t, r, http.MethodGet, "/elsewhere", nil)

	want := `
# HELP posts_requests_total Requests served, by method, route pattern and status.
# TYPE posts_requests_total counter
posts_requests_total{method="GET",route="/posts/:postId",status="200"} 2
posts_requests_total{method="GET",route="/posts/:postId",status="404"} 1
posts_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "posts_requests_total"))

	count, err := testutil.GatherAndCount(reg, "posts_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	inflight, err := testutil.GatherAndCount(reg, "posts_requests_in_flight")
	require.NoError(t, err)
	assert.Equal(t, 1, inflight)
}

func TestMetrics_duplicate_registration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rpc.Metrics(rpc.MetricsConfig{Registerer: reg})

	assert.Panics(t, func() {
		rpc.Metrics(rpc.MetricsConfig{Registerer: reg})
	})
}

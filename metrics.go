package rpc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the Metrics middleware.
type MetricsConfig struct {
	Namespace  string                // metric name prefix (default: "rpc")
	Registerer prometheus.Registerer // default: prometheus.DefaultRegisterer
	Buckets    []float64             // latency buckets (default: prometheus.DefBuckets)
}

// unmatchedRoute labels requests no registered route served.
const unmatchedRoute = "unmatched"

// Metrics returns middleware recording request counts and latencies labelled
// by method, route pattern and status. Labelling by pattern keeps series
// bounded no matter how many distinct parameter values are requested.
//
// Collectors are registered once; it panics if they already exist in the
// registerer, as prometheus.MustRegister does.
func Metrics(cfg ...MetricsConfig) Middleware {
	c := MetricsConfig{
		Namespace:  "rpc",
		Registerer: prometheus.DefaultRegisterer,
		Buckets:    prometheus.DefBuckets,
	}
	if len(cfg) > 0 {
		if cfg[0].Namespace != "" {
			c.Namespace = cfg[0].Namespace
		}
		if cfg[0].Registerer != nil {
			c.Registerer = cfg[0].Registerer
		}
		if len(cfg[0].Buckets) > 0 {
			c.Buckets = cfg[0].Buckets
		}
	}

	labels := []string{"method", "route", "status"}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.Namespace,
		Name:      "requests_total",
		Help:      "Requests served, by method, route pattern and status.",
	}, labels)
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency, by method, route pattern and status.",
		Buckets:   c.Buckets,
	}, labels)
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: c.Namespace,
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	})
	c.Registerer.MustRegister(requests, latency, inflight)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inflight.Inc()
			defer inflight.Dec()

			start := time.Now()
			res := Observe(w)
			next.ServeHTTP(res, r)

			route := unmatchedRoute
			if key, ok := res.Route(); ok {
				route = key.Pattern
			}
			lv := []string{r.Method, route, strconv.Itoa(res.StatusCode())}
			requests.WithLabelValues(lv...).Inc()
			latency.WithLabelValues(lv...).Observe(time.Since(start).Seconds())
		})
	}
}

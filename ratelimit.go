package rpc

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate            float64                                      // requests per second
	Burst           int                                          // max burst
	KeyFunc         func(r *http.Request) string                 // default: remote IP
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: 429 problem response
	CleanupInterval time.Duration                                // how often to prune idle limiters (default: 1m)
	MaxIdle         time.Duration                                // remove limiters idle longer than this (default: 5m)
}

// RemoteIP keys a request by the host part of its remote address.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RouteKeyFunc keys a request by remote IP and matched route, giving every
// route its own budget. It needs the route, so use it as route or group
// middleware rather than router middleware.
func RouteKeyFunc(r *http.Request) string {
	key, ok := MatchedRoute(r.Context())
	if !ok {
		return RemoteIP(r)
	}
	return RemoteIP(r) + " " + key.String()
}

// RateLimit returns middleware that applies per-key rate limiting.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = RemoteIP
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			writeErrorResponse(w, Error(http.StatusTooManyRequests, "rate limit exceeded"))
		}
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 5 * time.Minute
	}
	retryAfter := "1"
	if cfg.Rate > 0 && cfg.Rate < 1 {
		retryAfter = strconv.FormatFloat(1/cfg.Rate, 'f', 0, 64)
	}

	l := &limiters{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(cfg.Rate),
		burst:   cfg.Burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := l.get(cfg.KeyFunc(r), time.Now(), cleanupInterval, maxIdle)
			if !lim.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiters struct {
	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
	limit       rate.Limit
	burst       int
}

// get returns the limiter for key, pruning idle entries at most once per
// interval.
func (l *limiters) get(key string, now time.Time, interval, maxIdle time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= interval {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > maxIdle {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

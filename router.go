package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Router holds the route table, global middleware, and configuration.
// It implements http.Handler.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware

	// overflow holds routes the primary mux rejected as conflicting, in
	// registration order.
	overflow []*http.ServeMux

	// entries maps a ServeMux slot to the route currently serving it.
	// order lists slots by first registration.
	entries map[string]*routeInfo
	order   []string

	title   string
	version string

	errorHandler ErrorHandler
	logger       *slog.Logger

	mu sync.RWMutex
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTitle sets the API title (used in the contract and OpenAPI spec).
func WithTitle(title string) RouterOption {
	return func(r *Router) {
		r.title = title
	}
}

// WithVersion sets the API version. It should be a semantic version.
func WithVersion(version string) RouterOption {
	return func(r *Router) {
		r.version = version
	}
}

// ErrorHandler is a custom error response writer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// WithLogger sets the logger used for registration and error events.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		entries: make(map[string]*routeInfo),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Mount serves h for a ServeMux pattern such as "GET /metrics". Mounted
// handlers run behind the router middleware but are not part of the route
// table.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(http.HandlerFunc(r.route))
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// route hands req to the first mux with a pattern matching it. The primary
// mux answers anything none of them match, so 404 and 405 replies stay
// the ServeMux ones.
func (r *Router) route(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	overflow := r.overflow
	r.mu.RUnlock()

	if len(overflow) > 0 {
		if _, pattern := r.mux.Handler(req); pattern == "" {
			for _, mux := range overflow {
				if _, pattern := mux.Handler(req); pattern != "" {
					mux.ServeHTTP(w, req)
					return
				}
			}
		}
	}
	r.mux.ServeHTTP(w, req)
}

// mount installs h for slot on the first mux that accepts it. ServeMux
// refuses a pattern that overlaps an existing one when neither is more
// specific; such a slot moves to a later mux, so for requests both match
// the route registered first wins.
func (r *Router) mount(slot string, h http.Handler) (conflict bool) {
	if tryHandle(r.mux, slot, h) {
		return false
	}
	for _, mux := range r.overflow {
		if tryHandle(mux, slot, h) {
			return true
		}
	}
	mux := http.NewServeMux()
	mux.Handle(slot, h)
	r.overflow = append(r.overflow, mux)
	return true
}

func tryHandle(mux *http.ServeMux, pattern string, h http.Handler) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			if !strings.Contains(fmt.Sprint(rec), "conflicts with") {
				panic(rec)
			}
			ok = false
		}
	}()
	mux.Handle(pattern, h)
	return true
}

// addRoute installs ri in the dispatch table. A route whose slot is already
// taken replaces the previous one; the mux entry is mounted only once per
// slot and always serves the current route.
func (r *Router) addRoute(ri routeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := ri.slot()
	prev, exists := r.entries[slot]
	if !exists {
		if r.mount(slot, r.dispatch(slot)) {
			r.logger.Debug("route overlaps an earlier one",
				slog.String("method", ri.method),
				slog.String("pattern", ri.pattern.String()),
			)
		}
		r.order = append(r.order, slot)
	}
	r.entries[slot] = &ri

	if exists {
		r.logger.Debug("route replaced",
			slog.String("method", ri.method),
			slog.String("pattern", ri.pattern.String()),
			slog.String("previous", prev.pattern.String()),
		)
		return
	}
	r.logger.Debug("route registered",
		slog.String("method", ri.method),
		slog.String("pattern", ri.pattern.String()),
	)
}

// dispatch serves whichever route currently occupies slot.
func (r *Router) dispatch(slot string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.RLock()
		ri := r.entries[slot]
		r.mu.RUnlock()

		n := 0
		for _, s := range ri.pattern.segments {
			if !s.param {
				continue
			}
			req.SetPathValue(s.text, req.PathValue(wildcard(n)))
			n++
		}

		key := ri.key()
		markRoute(w, key)
		ri.handler.ServeHTTP(w, SetValue(req, key))
	})
}

// markRoute records key on every observer in w's wrapper chain.
func markRoute(w http.ResponseWriter, key RouteKey) {
	for cur := w; cur != nil; {
		if res, ok := cur.(*Response); ok {
			res.route, res.matched = key, true
		}
		u, ok := cur.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		cur = u.Unwrap()
	}
}

// MatchedRoute returns the route serving the request, if any.
func MatchedRoute(ctx context.Context) (RouteKey, bool) {
	return GetValue[RouteKey](ctx)
}

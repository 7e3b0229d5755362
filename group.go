package rpc

import "log/slog"

// Group is a collection of routes under a shared prefix with shared
// middleware and tags. The prefix may contain parameter segments
// ("/orgs/:orgId").
type Group struct {
	router     *Router
	prefix     pathPattern
	middleware []Middleware
	tags       []string
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupTags adds default tags to all routes registered on the group.
func WithGroupTags(tags ...string) GroupOption {
	return func(g *Group) {
		g.tags = append(g.tags, tags...)
	}
}

// WithGroupMiddleware adds middleware to the group.
func WithGroupMiddleware(mw ...Middleware) GroupOption {
	return func(g *Group) {
		g.middleware = append(g.middleware, mw...)
	}
}

// Group creates a new route group with the given prefix and options.
// It panics if the prefix is malformed.
func (r *Router) Group(prefix string, opts ...GroupOption) *Group {
	g := &Group{
		router: r,
		prefix: mustParse("group", prefix),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// addRoute implements Registrar for Group.
func (g *Group) addRoute(ri routeInfo) {
	ri.pattern = g.prefix.join(ri.pattern)
	ri.tags = append(append([]string(nil), g.tags...), ri.tags...)
	g.router.addRoute(ri)
}

func (g *Group) getErrorHandler() ErrorHandler { return g.router.errorHandler }

func (g *Group) getLogger() *slog.Logger { return g.router.logger }

func (g *Group) routeMiddleware() []Middleware { return g.middleware }

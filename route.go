package rpc

import (
	"net/http"
	"reflect"
	"sync/atomic"
)

// routeInfo holds everything known about a registered route: how to
// dispatch it and the shapes it contributes to the contract.
type routeInfo struct {
	method     string
	pattern    pathPattern
	summary    string
	desc       string
	tags       []string
	status     int
	deprecated bool
	errors     []int

	operationID string
	middleware  []Middleware

	reqType  reflect.Type
	respType reflect.Type

	// inferred holds the response type observed from the first terminal
	// write of a raw route that declared none.
	inferred *atomic.Pointer[reflect.Type]

	handler http.Handler
}

func (ri *routeInfo) key() RouteKey {
	return RouteKey{Method: ri.method, Pattern: ri.pattern.String()}
}

// slot identifies the ServeMux entry serving the route.
func (ri *routeInfo) slot() string {
	return ri.method + " " + ri.pattern.muxPath()
}

// responseType returns the declared response type, falling back to the
// inferred one.
func (ri *routeInfo) responseType() reflect.Type {
	if ri.respType != nil {
		return ri.respType
	}
	if ri.inferred != nil {
		if t := ri.inferred.Load(); t != nil {
			return *t
		}
	}
	return nil
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeInfo)

// WithStatus sets the default HTTP status code for the response.
func WithStatus(code int) RouteOption {
	return func(ri *routeInfo) {
		ri.status = code
	}
}

// WithSummary sets the summary for the route.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) {
		ri.summary = s
	}
}

// WithDescription sets the description for the route.
func WithDescription(d string) RouteOption {
	return func(ri *routeInfo) {
		ri.desc = d
	}
}

// WithTags adds tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(ri *routeInfo) {
		ri.tags = append(ri.tags, tags...)
	}
}

// WithDeprecated marks the route as deprecated.
func WithDeprecated() RouteOption {
	return func(ri *routeInfo) {
		ri.deprecated = true
	}
}

// WithErrors declares additional HTTP error status codes for the OpenAPI spec.
func WithErrors(codes ...int) RouteOption {
	return func(ri *routeInfo) {
		ri.errors = append(ri.errors, codes...)
	}
}

// WithOperationID sets a custom OpenAPI operationId.
func WithOperationID(id string) RouteOption {
	return func(ri *routeInfo) {
		ri.operationID = id
	}
}

// WithMiddleware adds middleware that runs before the route's terminal
// handler, in the order given.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(ri *routeInfo) {
		ri.middleware = append(ri.middleware, mw...)
	}
}

// WithRequestType declares the request type of a raw route.
func WithRequestType[T any]() RouteOption {
	return func(ri *routeInfo) {
		ri.reqType = reflect.TypeFor[T]()
	}
}

// WithResponseType declares the response type of a raw route. Without it
// the type of the first terminal write is recorded instead.
func WithResponseType[T any]() RouteOption {
	return func(ri *routeInfo) {
		ri.respType = reflect.TypeFor[T]()
	}
}

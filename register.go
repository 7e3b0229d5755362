package rpc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
)

// Registrar is the interface accepted by the registration functions.
// Both *Router and *Group implement it.
type Registrar interface {
	addRoute(ri routeInfo)
	getErrorHandler() ErrorHandler
	getLogger() *slog.Logger
	routeMiddleware() []Middleware
}

func (r *Router) getErrorHandler() ErrorHandler { return r.errorHandler }
func (r *Router) getLogger() *slog.Logger       { return r.logger }
func (r *Router) routeMiddleware() []Middleware { return nil }

// mustParse parses a registration pattern. A malformed pattern corrupts
// parameter extraction for the whole route, so it is fatal.
func mustParse(method, pattern string) pathPattern {
	p, err := parsePattern(pattern)
	if err != nil {
		panic(fmt.Errorf("rpc: register %s %s: %w", method, pattern, err))
	}
	return p
}

// register is the internal generic registration function.
func register[Req, Resp any](reg Registrar, method, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	ri := routeInfo{
		method:   method,
		pattern:  mustParse(method, pattern),
		reqType:  reflect.TypeFor[Req](),
		respType: reflect.TypeFor[Resp](),
	}

	for _, opt := range opts {
		opt(&ri)
	}

	// Determine default status: Void response → 204, otherwise 200.
	if ri.status == 0 {
		if ri.respType == reflect.TypeFor[Void]() {
			ri.status = http.StatusNoContent
		} else {
			ri.status = http.StatusOK
		}
	}

	terminal := buildHandler(h, ri.status, errorWriter(reg))
	ri.handler = chain(terminal, ri.middleware, reg.routeMiddleware())

	reg.addRoute(ri)
}

// buildHandler wraps a typed Handler into an http.Handler that writes
// through an observing Response.
func buildHandler[Req, Resp any](h Handler[Req, Resp], defaultStatus int, writeErr ErrorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := Observe(w)

		req, err := decodeRequest[Req](r)
		if err != nil {
			writeErr(res, r, bindError(err))
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			writeErr(res, r, err)
			return
		}

		// Void response.
		if _, ok := any(resp).(*Void); ok || resp == nil {
			res.WriteHeader(defaultStatus)
			return
		}

		writeResponse(res, resp, defaultStatus)
	})
}

// bindError maps a decoding failure to its response status.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Error(http.StatusRequestEntityTooLarge, err.Error())
	}
	return Error(http.StatusBadRequest, err.Error())
}

// errorWriter returns the registrar's error handler, or the default
// problem-details writer, logging server errors either way.
func errorWriter(reg Registrar) ErrorHandler {
	custom := reg.getErrorHandler()
	logger := reg.getLogger()
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if status := ErrorStatus(err); status >= http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "handler failed",
				slog.Int("status", status),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("err", err),
			)
		}
		if custom != nil {
			custom(w, r, err)
			return
		}
		writeErrorResponse(w, err)
	}
}

// chain applies route middleware, then registrar middleware, around h so
// that registrar middleware runs first.
func chain(h http.Handler, route, outer []Middleware) http.Handler {
	for i := len(route) - 1; i >= 0; i-- {
		h = route[i](h)
	}
	for i := len(outer) - 1; i >= 0; i-- {
		h = outer[i](h)
	}
	return h
}

// Get registers a GET handler.
func Get[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST handler.
func Post[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT handler.
func Put[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH handler.
func Patch[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE handler.
func Delete[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodDelete, pattern, h, opts...)
}

// Handle registers a raw handler. Its response shape comes from
// WithResponseType when given, otherwise from the first terminal write
// (JSON or Send) observed while serving the route.
func Handle(reg Registrar, method, pattern string, h RawHandler, opts ...RouteOption) {
	method = strings.ToUpper(method)
	ri := routeInfo{
		method:  method,
		pattern: mustParse(method, pattern),
	}

	for _, opt := range opts {
		opt(&ri)
	}

	if ri.respType == nil {
		ri.inferred = new(atomic.Pointer[reflect.Type])
	}
	inferred := ri.inferred
	writeErr := errorWriter(reg)

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := Observe(w)
		if inferred != nil && inferred.Load() == nil {
			res.onTerminal = func(c Call) {
				if t := reflect.TypeOf(c.Value); t != nil {
					inferred.CompareAndSwap(nil, &t)
				}
			}
		}
		if err := h(res, r); err != nil {
			res.onTerminal = nil
			writeErr(res, r, err)
		}
	})
	ri.handler = chain(terminal, ri.middleware, reg.routeMiddleware())

	reg.addRoute(ri)
}

package rpc

import (
	"context"
	"net/http"
)

// Void is used as a type parameter when a request has no parameters/body
// or a response has no body (results in 204 No Content).
type Void struct{}

// Handler is the typed terminal handler. The router owns serialization;
// handlers never see http.ResponseWriter or *http.Request.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// RawHandler is a terminal handler that writes its own response through the
// observing Response. A returned error is passed to the router's
// ErrorHandler.
type RawHandler func(res *Response, req *http.Request) error

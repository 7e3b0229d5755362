package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bjaus/rpc"
)

// Sentinel errors returned before a request is sent.
var (
	ErrInvalidCallState = errors.New("invalid call state")
	ErrUnknownRoute     = errors.New("unknown route")
	ErrParamMismatch    = errors.New("param mismatch")
	ErrIncompatible     = errors.New("incompatible contract")
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// StatusError is returned by transports for non-2xx responses.
type StatusError struct {
	Method  string
	URL     string
	Status  int
	Body    []byte
	Problem *rpc.ProblemDetail // decoded when the server sent problem+json
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	if e.Problem != nil && e.Problem.Detail != "" {
		msg += ": " + e.Problem.Detail
	}
	return msg
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int { return e.Status }

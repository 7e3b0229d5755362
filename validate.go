package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
)

// SelfValidator is implemented by request types that validate themselves.
type SelfValidator interface {
	Validate() error
}

// Validator validates any request.
type Validator interface {
	Validate(req any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(req any) error

// Validate calls f(req).
func (f ValidatorFunc) Validate(req any) error { return f(req) }

// ValidateQuery returns route middleware that binds the request's path,
// query, header and cookie values into a T and rejects the request with a
// 400 problem if T's constraint tags, its own Validate method, or any of
// the given validators fail. The request reaches the next handler unchanged.
func ValidateQuery[T any](validators ...Validator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := new(T)
			if _, ok := structType(reflect.TypeFor[T]()); ok {
				if err := bindParams(v, r); err != nil {
					writeErrorResponse(w, BadRequest(err.Error()))
					return
				}
			}
			if err := check(v, validators); err != nil {
				writeErrorResponse(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateBody returns route middleware that decodes the JSON body into a T
// and validates it like ValidateQuery. The body is restored so the next
// handler can read it again.
func ValidateBody[T any](validators ...Validator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var data []byte
			if r.Body != nil {
				b, err := io.ReadAll(r.Body)
				if err != nil {
					writeErrorResponse(w, bindError(fmt.Errorf("%w: %w", ErrBindBody, err)))
					return
				}
				data = b
				r.Body = io.NopCloser(bytes.NewReader(data))
			}

			v := new(T)
			if len(bytes.TrimSpace(data)) > 0 {
				if err := json.Unmarshal(data, v); err != nil {
					writeErrorResponse(w, BadRequest(fmt.Errorf("%w: %w", ErrBindBody, err).Error()))
					return
				}
			}
			if err := check(v, validators); err != nil {
				writeErrorResponse(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// check runs constraint tags, then SelfValidator, then validators. Errors
// without a status become 400s.
func check(v any, validators []Validator) error {
	if err := validateConstraints(v); err != nil {
		return err
	}
	if sv, ok := v.(SelfValidator); ok {
		if err := sv.Validate(); err != nil {
			return asBadRequest(err)
		}
	}
	for _, val := range validators {
		if err := val.Validate(v); err != nil {
			return asBadRequest(err)
		}
	}
	return nil
}

func asBadRequest(err error) error {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return err
	}
	return BadRequest(err.Error())
}

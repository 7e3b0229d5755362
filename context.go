package rpc

import (
	"context"
	"net/http"
)

// valueKey keys context values by their type, so each type holds one slot.
type valueKey[T any] struct{}

// SetValue returns a shallow copy of r whose context carries val. The router
// uses it for the matched route key and the request ID; middleware can use
// it to hand values such as an authenticated principal to handlers.
func SetValue[T any](r *http.Request, val T) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), valueKey[T]{}, val))
}

// GetValue returns the value of type T stored by SetValue.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(valueKey[T]{}).(T)
	return val, ok
}

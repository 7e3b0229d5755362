package rpc

import "net/http"

// RawRequest gives a typed handler the *http.Request it was bound from.
// Embed it, or declare a field of this type, in a request struct; it is
// never part of the body schema or the contract.
type RawRequest struct {
	Request *http.Request
}

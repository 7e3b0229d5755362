// Package natsbridge carries rpc calls over NATS request/reply. Serve
// exposes any http.Handler, typically an *rpc.Router, on a subject, and
// Transport lets a client.Client call it, so the same contract works with
// or without HTTP between the two sides.
package natsbridge

import "net/http"

// Request is the message published for one call.
type Request struct {
	Method string      `json:"method"`
	Path   string      `json:"path"` // escaped path, with the query when present
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`

	// TimeoutMs is the caller's remaining budget. The server never waits
	// longer than its own timeout.
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// Reply is the message sent back for one call.
type Reply struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

package rpc

import (
	"encoding/json"
	"net/http"
)

// Op names an operation performed on a Response.
type Op string

// Operations recorded by a Response. OpJSON and OpSend are terminal: they
// send a body and end the response.
const (
	OpHeader      Op = "header"
	OpStatus      Op = "status"
	OpWriteHeader Op = "writeHeader"
	OpWrite       Op = "write"
	OpJSON        Op = "json"
	OpSend        Op = "send"
	OpSendStatus  Op = "sendStatus"
)

// Terminal reports whether the operation sends a body and ends the response.
func (o Op) Terminal() bool {
	return o == OpJSON || o == OpSend
}

// Call is one recorded operation and the value passed to it.
type Call struct {
	Op    Op
	Value any
}

// Response observes an http.ResponseWriter. Every operation is forwarded
// unchanged to the wrapped writer and appended to the call history.
//
// A Response belongs to exactly one in-flight request and is not safe for
// concurrent use.
type Response struct {
	w http.ResponseWriter

	calls    []Call
	terminal int // 1-based index into calls, 0 when none

	status      int
	wroteHeader bool
	size        int

	route   RouteKey
	matched bool

	onTerminal func(Call)
}

// Observe wraps w in a Response. If w already is a *Response it is
// returned unchanged, so stacked layers share one observer.
func Observe(w http.ResponseWriter) *Response {
	if res, ok := w.(*Response); ok {
		return res
	}
	return &Response{w: w, status: http.StatusOK}
}

// Header returns the wrapped writer's header map.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// WriteHeader forwards to the wrapped writer.
func (r *Response) WriteHeader(code int) {
	r.record(OpWriteHeader, code)
	r.writeHeader(code)
}

// Write forwards to the wrapped writer.
func (r *Response) Write(b []byte) (int, error) {
	r.record(OpWrite, len(b))
	return r.write(b)
}

// Unwrap returns the wrapped writer (supports http.ResponseController).
func (r *Response) Unwrap() http.ResponseWriter {
	return r.w
}

// Status sets the status code used by the next body write.
func (r *Response) Status(code int) *Response {
	r.record(OpStatus, code)
	if !r.wroteHeader {
		r.status = code
	}
	return r
}

// SetHeader sets a response header.
func (r *Response) SetHeader(key, value string) *Response {
	r.record(OpHeader, [2]string{key, value})
	r.w.Header().Set(key, value)
	return r
}

// ContentType sets the Content-Type header.
func (r *Response) ContentType(ct string) *Response {
	return r.SetHeader("Content-Type", ct)
}

// JSON encodes v as the response body.
func (r *Response) JSON(v any) error {
	r.record(OpJSON, v)
	if r.w.Header().Get("Content-Type") == "" {
		r.w.Header().Set("Content-Type", "application/json")
	}
	r.writeHeader(r.status)
	return json.NewEncoder(writerFunc(r.write)).Encode(v)
}

// Send writes b as the response body.
func (r *Response) Send(b []byte) error {
	r.record(OpSend, b)
	r.writeHeader(r.status)
	_, err := r.write(b)
	return err
}

// SendStatus writes code with its status text as a plain-text body.
func (r *Response) SendStatus(code int) error {
	r.record(OpSendStatus, code)
	r.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.writeHeader(code)
	_, err := r.write([]byte(http.StatusText(code)))
	return err
}

// Calls returns the recorded operations in invocation order.
func (r *Response) Calls() []Call {
	return append([]Call(nil), r.calls...)
}

// Terminal returns the first terminal call, if any.
func (r *Response) Terminal() (Call, bool) {
	if r.terminal == 0 {
		return Call{}, false
	}
	return r.calls[r.terminal-1], true
}

// StatusCode returns the status written, or the pending status when
// nothing has been written yet.
func (r *Response) StatusCode() int { return r.status }

// Size returns the number of body bytes written.
func (r *Response) Size() int { return r.size }

// Route returns the route that handled the request, if one matched.
func (r *Response) Route() (RouteKey, bool) { return r.route, r.matched }

func (r *Response) record(op Op, v any) {
	r.calls = append(r.calls, Call{Op: op, Value: v})
	if op.Terminal() && r.terminal == 0 {
		r.terminal = len(r.calls)
		if r.onTerminal != nil {
			r.onTerminal(r.calls[r.terminal-1])
		}
	}
}

func (r *Response) writeHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = code
	r.w.WriteHeader(code)
}

func (r *Response) write(b []byte) (int, error) {
	r.writeHeader(r.status)
	n, err := r.w.Write(b)
	r.size += n
	return n, err
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

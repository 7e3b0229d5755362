// Package clienttest provides fakes for testing code that uses the client
// package without a network.
package clienttest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bjaus/rpc/client"
)

// ErrNoResponse is returned by a FakeTransport with nothing left to answer.
var ErrNoResponse = errors.New("no responses left")

// FakeTransport implements client.Transport. It records every request and
// answers with queued responses, then with the fallback.
type FakeTransport struct {
	t testing.TB

	mu        sync.Mutex
	responses []*client.Response
	fallback  *client.Response
	requests  []client.Request
}

// NewFakeTransport returns a FakeTransport seeded with the responses to
// return for each Do call, in order.
func NewFakeTransport(t testing.TB, responses ...*client.Response) *FakeTransport {
	return &FakeTransport{
		t:         t,
		responses: append([]*client.Response(nil), responses...),
	}
}

// Fallback sets the response returned once the queue is empty.
func (f *FakeTransport) Fallback(resp *client.Response) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = resp
	return f
}

// Do records the request and returns the next queued response.
func (f *FakeTransport) Do(_ context.Context, req client.Request) (*client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		if f.fallback != nil {
			return f.fallback, nil
		}
		f.t.Errorf("fake transport has no responses left for request %s %s", req.Method, req.URL)
		return nil, ErrNoResponse
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

// Requests returns the requests captured so far.
func (f *FakeTransport) Requests() []client.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Request(nil), f.requests...)
}

// JSONResponse builds a response with v encoded as its body.
func JSONResponse(t testing.TB, status int, v any) *client.Response {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("clienttest: marshal response: %v", err)
	}
	return &client.Response{
		Status: status,
		Header: http.Header{"Content-Type": {"application/json"}},
		Data:   data,
	}
}

// HandlerDoer serves requests in-process through an http.Handler, so an
// HTTPTransport can talk to a router without a listener.
type HandlerDoer struct {
	Handler http.Handler
}

// Do serves req with the handler and returns the recorded response.
func (d HandlerDoer) Do(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	d.Handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// NewHandlerClient returns a client dispatching to h in-process.
func NewHandlerClient(t testing.TB, h http.Handler, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(client.NewHTTPTransport("http://rpc.test", client.WithHTTPClient(HandlerDoer{Handler: h})), opts...)
	if err != nil {
		t.Fatalf("clienttest: new client: %v", err)
	}
	return c
}

var (
	_ client.Transport = (*FakeTransport)(nil)
	_ client.HTTPDoer  = HandlerDoer{}
)

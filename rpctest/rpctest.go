// Package rpctest provides typed test helpers for rpc routers.
package rpctest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/rpc"
	"github.com/bjaus/rpc/client"
)

// Server runs a router on an httptest server for the duration of a test.
type Server struct {
	*httptest.Server
	Router *rpc.Router
}

// NewServer starts r and closes it when the test ends.
func NewServer(t testing.TB, r *rpc.Router) *Server {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, Router: r}
}

// Client returns a dynamic client for the server, validated against the
// router's current contract.
func (s *Server) Client(t testing.TB, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{client.WithContract(s.Router.Contract())}, opts...)
	c, err := client.New(client.NewHTTPTransport(s.URL, client.WithHTTPClient(s.Server.Client())), opts...)
	if err != nil {
		t.Fatalf("rpctest: new client: %v", err)
	}
	return c
}

// Response holds a decoded response.
type Response[T any] struct {
	Status  int
	Headers http.Header
	Body    *T
	Problem *rpc.ProblemDetail
}

// Get sends a typed GET request.
func Get[Resp any](t testing.TB, s *Server, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, s, http.MethodGet, path, nil)
}

// Post sends a typed POST request with a JSON body.
func Post[Req, Resp any](t testing.TB, s *Server, path string, body *Req) *Response[Resp] {
	t.Helper()
	return do[Resp](t, s, http.MethodPost, path, body)
}

// Put sends a typed PUT request with a JSON body.
func Put[Req, Resp any](t testing.TB, s *Server, path string, body *Req) *Response[Resp] {
	t.Helper()
	return do[Resp](t, s, http.MethodPut, path, body)
}

// Patch sends a typed PATCH request with a JSON body.
func Patch[Req, Resp any](t testing.TB, s *Server, path string, body *Req) *Response[Resp] {
	t.Helper()
	return do[Resp](t, s, http.MethodPatch, path, body)
}

// Delete sends a typed DELETE request.
func Delete[Resp any](t testing.TB, s *Server, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, s, http.MethodDelete, path, nil)
}

func do[Resp any](t testing.TB, s *Server, method, path string, body any) *Response[Resp] {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("rpctest: marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.URL+path, reqBody)
	if err != nil {
		t.Fatalf("rpctest: create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("rpctest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("rpctest: close body: %v", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("rpctest: read body: %v", err)
	}

	result := &Response[Resp]{
		Status:  resp.StatusCode,
		Headers: resp.Header,
	}
	if len(data) == 0 {
		return result
	}

	switch resp.Header.Get("Content-Type") {
	case "application/problem+json":
		var pd rpc.ProblemDetail
		if err := json.Unmarshal(data, &pd); err != nil {
			t.Errorf("rpctest: decode problem %s %s: %v", method, path, err)
		}
		result.Problem = &pd
	case "application/json":
		var decoded Resp
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Errorf("rpctest: decode %s %s: %v", method, path, err)
			return result
		}
		result.Body = &decoded
	}
	return result
}

// Record serves req with h through an observing Response and returns it,
// so tests can inspect the recorded calls alongside the recorder.
func Record(h http.Handler, req *http.Request) (*rpc.Response, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	res := rpc.Observe(rec)
	h.ServeHTTP(res, req)
	return res, rec
}

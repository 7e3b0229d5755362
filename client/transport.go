package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/bjaus/rpc"
)

// Request is what a Transport sends. URL is the resolved, escaped path.
type Request struct {
	URL    string
	Method string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response is what a Transport returns for a successful call.
type Response struct {
	Status int
	Header http.Header
	Data   json.RawMessage
}

// Transport issues one request. Implementations must be safe for
// concurrent use.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

// HTTPDoer captures the subset of *http.Client the transport relies on.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport sends requests to a base URL over HTTP.
type HTTPTransport struct {
	baseURL string
	doer    HTTPDoer
	header  http.Header
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the HTTP client (default: http.DefaultClient).
func WithHTTPClient(d HTTPDoer) HTTPOption {
	return func(t *HTTPTransport) {
		t.doer = d
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		t.header.Add(key, value)
	}
}

// NewHTTPTransport returns a transport rooted at baseURL, e.g.
// "http://localhost:8080" or "https://api.example.com/v2".
func NewHTTPTransport(baseURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    http.DefaultClient,
		header:  http.Header{"Accept": {"application/json"}},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do implements Transport. Non-2xx responses return a *StatusError.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(t.baseURL + req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	maps.Copy(hreq.Header, t.header.Clone())
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.doer.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(req, resp.StatusCode, resp.Header, data)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Data:   data,
	}, nil
}

// NewStatusError builds the error for a non-2xx reply, decoding the body
// as a problem detail when the reply says it is one. Transports other than
// HTTPTransport use it to report failures the same way.
func NewStatusError(req Request, status int, header http.Header, data []byte) *StatusError {
	se := &StatusError{
		Method: req.Method,
		URL:    req.URL,
		Status: status,
		Body:   data,
	}
	if mt, _, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil && mt == "application/problem+json" {
		var pd rpc.ProblemDetail
		if json.Unmarshal(data, &pd) == nil {
			se.Problem = &pd
		}
	}
	return se
}

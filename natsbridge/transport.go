package natsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bjaus/rpc/client"
)

// ErrNoServer is returned when nothing is serving the subject.
var ErrNoServer = errors.New("no server on subject")

// Transport sends client requests to a Server over NATS.
type Transport struct {
	nc      *nats.Conn
	subject string
	header  http.Header
	timeout time.Duration
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithRequestTimeout bounds calls whose context has no deadline (default 10s).
func WithRequestTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithRequestHeader adds a header sent with every request.
func WithRequestHeader(key, value string) TransportOption {
	return func(t *Transport) {
		t.header.Add(key, value)
	}
}

// NewTransport returns a client transport publishing on subject.
func NewTransport(nc *nats.Conn, subject string, opts ...TransportOption) *Transport {
	t := &Transport{
		nc:      nc,
		subject: subject,
		header:  http.Header{"Accept": {"application/json"}},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do implements client.Transport. Non-2xx replies return a
// *client.StatusError.
func (t *Transport) Do(ctx context.Context, req client.Request) (*client.Response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	env := Request{
		Method: req.Method,
		Path:   req.URL,
		Header: t.header.Clone(),
	}
	if len(req.Query) > 0 {
		env.Path += "?" + req.Query.Encode()
	}
	for k, vs := range req.Header {
		env.Header[k] = append([]string(nil), vs...)
	}
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		env.Body = b
		env.Header.Set("Content-Type", "application/json")
	}
	if deadline, ok := ctx.Deadline(); ok {
		env.TimeoutMs = time.Until(deadline).Milliseconds()
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	msg, err := t.nc.RequestWithContext(ctx, t.subject, data)
	if errors.Is(err, nats.ErrNoResponders) {
		return nil, fmt.Errorf("%s %s: %w: %s", req.Method, req.URL, ErrNoServer, t.subject)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	var rep Reply
	if err := json.Unmarshal(msg.Data, &rep); err != nil {
		return nil, fmt.Errorf("%s %s: decode reply: %w", req.Method, req.URL, err)
	}

	if rep.Status < 200 || rep.Status > 299 {
		return nil, client.NewStatusError(req, rep.Status, rep.Header, rep.Body)
	}
	return &client.Response{
		Status: rep.Status,
		Header: rep.Header,
		Data:   rep.Body,
	}, nil
}

package natsbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bjaus/rpc"
)

// Server answers requests published on a subject with an http.Handler.
type Server struct {
	nc      *nats.Conn
	subject string
	queue   string
	handler http.Handler
	timeout time.Duration
	logger  *slog.Logger

	sub *nats.Subscription
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithQueue joins a queue group so requests are spread across instances.
func WithQueue(name string) ServerOption {
	return func(s *Server) {
		s.queue = name
	}
}

// WithTimeout bounds each request (default 30s).
func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the logger (default slog.Default).
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// Serve subscribes h to subject and answers every request until Close.
func Serve(nc *nats.Conn, subject string, h http.Handler, opts ...ServerOption) (*Server, error) {
	s := &Server{
		nc:      nc,
		subject: subject,
		handler: h,
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.queue != "" {
		s.sub, err = nc.QueueSubscribe(subject, s.queue, s.handle)
	} else {
		s.sub, err = nc.Subscribe(subject, s.handle)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	s.logger.Info("nats bridge serving", slog.String("subject", subject), slog.String("queue", s.queue))
	return s, nil
}

// Close drains the subscription, letting in-flight requests finish.
func (s *Server) Close() error {
	return s.sub.Drain()
}

func (s *Server) handle(msg *nats.Msg) {
	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, problemReply(http.StatusBadRequest, "decode request: "+err.Error()))
		return
	}

	timeout := s.timeout
	if req.TimeoutMs > 0 {
		timeout = min(timeout, time.Duration(req.TimeoutMs)*time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.Path, bytes.NewReader(req.Body))
	if err != nil {
		s.respond(msg, problemReply(http.StatusBadRequest, "build request: "+err.Error()))
		return
	}
	if req.Header != nil {
		hreq.Header = req.Header
	}
	hreq.ContentLength = int64(len(req.Body))
	hreq.RemoteAddr = "nats:" + s.subject
	hreq.RequestURI = req.Path

	w := &replyWriter{header: make(http.Header)}
	s.handler.ServeHTTP(w, hreq)
	s.respond(msg, w.reply())
}

func (s *Server) respond(msg *nats.Msg, rep Reply) {
	data, err := json.Marshal(rep)
	if err != nil {
		s.logger.Error("nats bridge encode reply", slog.String("subject", s.subject), slog.Any("err", err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("nats bridge respond", slog.String("subject", s.subject), slog.Any("err", err))
	}
}

func problemReply(status int, detail string) Reply {
	body, _ := json.Marshal(&rpc.ProblemDetail{ //nolint:errcheck // plain struct always encodes
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
	return Reply{
		Status: status,
		Header: http.Header{"Content-Type": {"application/problem+json"}},
		Body:   body,
	}
}

// replyWriter collects a handler's response into a Reply.
type replyWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *replyWriter) Header() http.Header { return w.header }

func (w *replyWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
}

func (w *replyWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.body.Write(b)
}

func (w *replyWriter) reply() Reply {
	status := w.status
	if !w.wroteHeader {
		status = http.StatusOK
	}
	return Reply{Status: status, Header: w.header, Body: w.body.Bytes()}
}

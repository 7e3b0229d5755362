package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/bjaus/rpc"
)

// Client dispatches calls through a Transport. It is immutable after New
// and safe for concurrent use.
type Client struct {
	transport  Transport
	contract   *rpc.Contract
	constraint string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithContract validates every call against c before dispatch: the
// (method, pattern) pair must exist and Params must name exactly its
// parameters.
func WithContract(c rpc.Contract) Option {
	return func(cl *Client) {
		cl.contract = &c
	}
}

// WithVersionConstraint requires the contract's version to satisfy a
// semantic version constraint such as ">= 1.2, < 2". It needs WithContract.
func WithVersionConstraint(constraint string) Option {
	return func(cl *Client) {
		cl.constraint = constraint
	}
}

// WithLogger sets the logger used for dispatch events.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New returns a Client over transport. It fails with ErrIncompatible when
// a version constraint is set and the contract does not satisfy it.
func New(transport Transport, opts ...Option) (*Client, error) {
	c := &Client{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.constraint != "" {
		if err := c.checkVersion(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) checkVersion() error {
	if c.contract == nil {
		return fmt.Errorf("%w: version constraint %q without a contract", ErrIncompatible, c.constraint)
	}
	constraint, err := semver.NewConstraint(c.constraint)
	if err != nil {
		return fmt.Errorf("%w: constraint %q: %w", ErrIncompatible, c.constraint, err)
	}
	v, err := c.contract.SemVer()
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrIncompatible, c.contract.Version, err)
	}
	if ok, errs := constraint.Validate(v); !ok {
		return fmt.Errorf("%w: version %s does not satisfy %q: %v", ErrIncompatible, v, c.constraint, errs)
	}
	return nil
}

// Root returns the empty traversal.
func (c *Client) Root() Traversal {
	return Traversal{client: c}
}

// dispatch resolves segs against args and issues one request.
func (c *Client) dispatch(ctx context.Context, method string, segs []string, args Args) (*Result, error) {
	if c.contract != nil {
		if err := c.checkRoute(method, segs, args); err != nil {
			return nil, err
		}
	}

	query, err := encodeQuery(args.Query)
	if err != nil {
		return nil, err
	}

	req := Request{
		URL:    resolvePath(segs, args.Params),
		Method: method,
		Query:  query,
		Header: args.Header,
		Body:   args.Body,
	}
	c.logger.DebugContext(ctx, "dispatch",
		slog.String("method", req.Method),
		slog.String("url", req.URL),
	)

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{Status: resp.Status, Header: resp.Header, Data: resp.Data}, nil
}

func (c *Client) checkRoute(method string, segs []string, args Args) error {
	pattern := "/" + strings.Join(segs, "/")
	d, ok := c.contract.Lookup(method, pattern)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownRoute, method, pattern)
	}
	want := slices.Sorted(slices.Values(d.Params))
	if got := paramNames(args.Params); !slices.Equal(slices.Compact(want), got) {
		return fmt.Errorf("%w: %s %s: want %v, got %v", ErrParamMismatch, method, pattern, d.Params, got)
	}
	return nil
}

// resolvePath joins segs with "/" behind a single leading "/", replacing
// each parameter segment with its escaped value. A parameter with no value
// keeps its marker.
func resolvePath(segs []string, params map[string]string) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		if name, ok := paramName(s); ok {
			if v, ok := params[name]; ok {
				b.WriteString(url.PathEscape(v))
				continue
			}
		}
		b.WriteString(s)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func paramName(seg string) (string, bool) {
	if len(seg) < 2 || seg[0] != rpc.ParamMarker {
		return "", false
	}
	return seg[1:], true
}

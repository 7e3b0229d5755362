package client

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Traversal is an immutable path under construction. Every method that
// extends it returns a new value, so one Traversal can be shared and
// extended concurrently.
type Traversal struct {
	client *Client
	segs   []string
}

// Segment returns the traversal extended by name. Names starting with the
// parameter marker are parameters.
func (t Traversal) Segment(name string) Traversal {
	return Traversal{client: t.client, segs: append(slices.Clip(t.segs), name)}
}

// Param returns the traversal extended by the parameter segment ":name".
func (t Traversal) Param(name string) Traversal {
	return t.Segment(":" + name)
}

// Path returns the traversal extended by every non-empty segment of a
// pattern such as "/posts/:postId".
func (t Traversal) Path(pattern string) Traversal {
	for part := range strings.SplitSeq(pattern, "/") {
		if part != "" {
			t = t.Segment(part)
		}
	}
	return t
}

// Segments returns a copy of the accumulated segments.
func (t Traversal) Segments() []string {
	return slices.Clone(t.segs)
}

// String renders the traversal as a pattern, e.g. "/posts/:postId".
func (t Traversal) String() string {
	return "/" + strings.Join(t.segs, "/")
}

// Get issues a GET to the traversal's path. Every segment is path,
// including one spelled like a method.
func (t Traversal) Get(ctx context.Context, args Args) (*Result, error) {
	return t.client.dispatch(ctx, http.MethodGet, t.segs, args)
}

// Post issues a POST to the traversal's path.
func (t Traversal) Post(ctx context.Context, args Args) (*Result, error) {
	return t.client.dispatch(ctx, http.MethodPost, t.segs, args)
}

// Put issues a PUT to the traversal's path.
func (t Traversal) Put(ctx context.Context, args Args) (*Result, error) {
	return t.client.dispatch(ctx, http.MethodPut, t.segs, args)
}

// Patch issues a PATCH to the traversal's path.
func (t Traversal) Patch(ctx context.Context, args Args) (*Result, error) {
	return t.client.dispatch(ctx, http.MethodPatch, t.segs, args)
}

// Delete issues a DELETE to the traversal's path.
func (t Traversal) Delete(ctx context.Context, args Args) (*Result, error) {
	return t.client.dispatch(ctx, http.MethodDelete, t.segs, args)
}

// Invoke treats the last segment as the method (get, post, put, patch or
// delete, any case) and the rest as the path, and dispatches on its own
// goroutine. It fails with ErrInvalidCallState on the root traversal or
// when the last segment is not a method.
func (t Traversal) Invoke(ctx context.Context, args Args) *Pending {
	if len(t.segs) == 0 {
		return resolved(nil, fmt.Errorf("%w: invoke on root", ErrInvalidCallState))
	}
	last := t.segs[len(t.segs)-1]
	method, ok := methodOf(last)
	if !ok {
		return resolved(nil, fmt.Errorf("%w: %q is not a method", ErrInvalidCallState, last))
	}
	path := t.segs[:len(t.segs)-1]
	return async(func() (*Result, error) {
		return t.client.dispatch(ctx, method, path, args)
	})
}

// Call invokes the traversal when its last segment is a method and arg is
// Args or *Args. Otherwise it descends by the formatted arg and returns the
// extended traversal with a nil Pending.
func (t Traversal) Call(ctx context.Context, arg any) (Traversal, *Pending) {
	var args Args
	switch v := arg.(type) {
	case Args:
		args = v
	case *Args:
		if v != nil {
			args = *v
		}
	default:
		return t.Segment(fmt.Sprint(arg)), nil
	}

	if len(t.segs) == 0 {
		return t, t.Invoke(ctx, args)
	}
	if _, ok := methodOf(t.segs[len(t.segs)-1]); !ok {
		return t.Segment(fmt.Sprint(arg)), nil
	}
	return t, t.Invoke(ctx, args)
}

var methods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"delete": http.MethodDelete,
}

func methodOf(seg string) (string, bool) {
	m, ok := methods[strings.ToLower(seg)]
	return m, ok
}


package client

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/bjaus/rpc"
)

// Do calls the route registered under method and pattern with arguments
// derived from req by FromRequest, and decodes the response into a Resp.
// A Resp of rpc.Void decodes nothing. Generated clients are built on it.
func Do[Resp any](ctx context.Context, c *Client, method, pattern string, req any) (*Resp, error) {
	if _, ok := methodOf(method); !ok {
		return nil, fmt.Errorf("%w: %q is not a method", ErrInvalidCallState, method)
	}

	res, err := c.dispatch(ctx, strings.ToUpper(method), c.Root().Path(pattern).segs, FromRequest(req))
	if err != nil {
		return nil, err
	}

	out := new(Resp)
	if reflect.TypeFor[Resp]() == reflect.TypeFor[rpc.Void]() {
		return out, nil
	}
	if err := res.Decode(out); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", strings.ToUpper(method), pattern, err)
	}
	return out, nil
}

package client_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc/client"
	"github.com/bjaus/rpc/client/clienttest"
)

func newFake(t *testing.T) (*client.Client, *clienttest.FakeTransport) {
	t.Helper()
	fake := clienttest.NewFakeTransport(t).Fallback(clienttest.JSONResponse(t, http.StatusOK, map[string]string{"ok": "yes"}))
	c, err := client.New(fake)
	require.NoError(t, err)
	return c, fake
}

func TestTraversal_get_substitutes_params(t *testing.T) {
	t.Parallel()

	c, fake := newFake(t)

	res, err := c.Root().Segment("posts").Param("postId").Get(context.Background(), client.Args{
		Params: map[string]string{"postId": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/posts/42", reqs[0].URL)
	assert.Nil(t, reqs[0].Body)
}

func TestTraversal_get_query_without_body(t *testing.T) {
	t.Parallel()

	c, fake := newFake(t)

	_, err := c.Root().Segment("posts").Get(context.Background(), client.Args{
		Params: map[string]string{},
		Query:  map[string]string{"sort": "desc", "limit": "10"},
	})
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/posts", reqs[0].URL)
	assert.Equal(t, url.Values{"sort": {"desc"}, "limit": {"10"}}, reqs[0].Query)
	assert.Equal(t, "limit=10&sort=desc", reqs[0].Query.Encode())
	assert.Nil(t, reqs[0].Body)
}

func TestTraversal_paths(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		build  func(client.Traversal) client.Traversal
		params map[string]string
		want   string
	}{
		"no params": {
			build: func(t client.Traversal) client.Traversal { return t.Segment("posts") },
			want:  "/posts",
		},
		"two params": {
			build: func(t client.Traversal) client.Traversal { return t.Path("/a/:x/b/:y") },
			params: map[string]string{"x": "1", "y": "2"},
			want:   "/a/1/b/2",
		},
		"unmatched param stays literal": {
			build:  func(t client.Traversal) client.Traversal { return t.Path("/posts/:postId") },
			params: map[string]string{"id": "42"},
			want:   "/posts/:postId",
		},
		"value is escaped": {
			build:  func(t client.Traversal) client.Traversal { return t.Path("/files/:name") },
			params: map[string]string{"name": "a b/c"},
			want:   "/files/a%20b%2Fc",
		},
		"bare marker is literal": {
			build: func(t client.Traversal) client.Traversal { return t.Segment("x").Segment(":") },
			want:  "/x/:",
		},
		"root": {
			build: func(t client.Traversal) client.Traversal { return t },
			want:  "/",
		},
		"deep": {
			build: func(t client.Traversal) client.Traversal {
				for i := range 50 {
					t = t.Segment(fmt.Sprint(i))
				}
				return t.Param("id")
			},
			params: map[string]string{"id": "z"},
			want: "/0/1/2/3/4/5/6/7/8/9/10/11/12/13/14/15/16/17/18/19/20/21/22/23/24" +
				"/25/26/27/28/29/30/31/32/33/34/35/36/37/38/39/40/41/42/43/44/45/46/47/48/49/z",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, fake := newFake(t)
			_, err := tc.build(c.Root()).Post(context.Background(), client.Args{Params: tc.params})
			require.NoError(t, err)

			reqs := fake.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, http.MethodPost, reqs[0].Method)
			assert.Equal(t, tc.want, reqs[0].URL)
		})
	}
}

func TestTraversal_immutable(t *testing.T) {
	t.Parallel()

	c, fake := newFake(t)
	ctx := context.Background()

	base := c.Root().Segment("a")
	left := base.Segment("b")
	right := base.Segment("c")
	chained := c.Root().Segment("a").Segment("b")

	assert.Equal(t, []string{"a"}, base.Segments())
	assert.Equal(t, []string{"a", "b"}, left.Segments())
	assert.Equal(t, []string{"a", "c"}, right.Segments())

	_, err := left.Get(ctx, client.Args{})
	require.NoError(t, err)
	_, err = chained.Get(ctx, client.Args{})
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].URL, reqs[1].URL)
}

func TestTraversal_Invoke(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path       string
		wantMethod string
		wantURL    string
	}{
		"get":          {path: "/posts/:postId/get", wantMethod: http.MethodGet, wantURL: "/posts/42"},
		"upper case":   {path: "/posts/POST", wantMethod: http.MethodPost, wantURL: "/posts"},
		"put":          {path: "/posts/:postId/put", wantMethod: http.MethodPut, wantURL: "/posts/42"},
		"patch":        {path: "/posts/:postId/Patch", wantMethod: http.MethodPatch, wantURL: "/posts/42"},
		"delete":       {path: "/posts/:postId/delete", wantMethod: http.MethodDelete, wantURL: "/posts/42"},
		"method alone": {path: "/get", wantMethod: http.MethodGet, wantURL: "/"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, fake := newFake(t)
			res, err := c.Root().Path(tc.path).Invoke(context.Background(), client.Args{
				Params: map[string]string{"postId": "42"},
			}).Wait()
			require.NoError(t, err)

			var body map[string]string
			require.NoError(t, res.Decode(&body))
			assert.Equal(t, "yes", body["ok"])

			reqs := fake.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tc.wantMethod, reqs[0].Method)
			assert.Equal(t, tc.wantURL, reqs[0].URL)
		})
	}
}

func TestTraversal_Invoke_invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		build   func(client.Traversal) client.Traversal
		wantMsg string
	}{
		"root": {
			build:   func(t client.Traversal) client.Traversal { return t },
			wantMsg: "invoke on root",
		},
		"not a method": {
			build:   func(t client.Traversal) client.Traversal { return t.Segment("posts") },
			wantMsg: `"posts" is not a method`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, fake := newFake(t)
			p := tc.build(c.Root()).Invoke(context.Background(), client.Args{})

			select {
			case <-p.Done():
			default:
				t.Fatal("invalid invoke should resolve immediately")
			}

			_, err := p.Wait()
			require.ErrorIs(t, err, client.ErrInvalidCallState)
			assert.Contains(t, err.Error(), tc.wantMsg)
			assert.Empty(t, fake.Requests())
		})
	}
}

func TestTraversal_typed_verb_keeps_method_named_segment(t *testing.T) {
	t.Parallel()

	c, fake := newFake(t)
	_, err := c.Root().Path("/reports/get").Get(context.Background(), client.Args{})
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/reports/get", reqs[0].URL)
}

func TestTraversal_Call(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("descends when last segment is not a method", func(t *testing.T) {
		t.Parallel()

		c, fake := newFake(t)
		next, p := c.Root().Segment("posts").Call(ctx, 42)
		assert.Nil(t, p)
		assert.Equal(t, []string{"posts", "42"}, next.Segments())
		assert.Empty(t, fake.Requests())
	})

	t.Run("descends when arg is not Args", func(t *testing.T) {
		t.Parallel()

		c, fake := newFake(t)
		next, p := c.Root().Segment("get").Call(ctx, "more")
		assert.Nil(t, p)
		assert.Equal(t, []string{"get", "more"}, next.Segments())
		assert.Empty(t, fake.Requests())
	})

	t.Run("invokes with Args after a method", func(t *testing.T) {
		t.Parallel()

		c, fake := newFake(t)
		_, p := c.Root().Path("/posts/:postId/delete").Call(ctx, &client.Args{
			Params: map[string]string{"postId": "7"},
		})
		require.NotNil(t, p)
		_, err := p.Wait()
		require.NoError(t, err)

		reqs := fake.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodDelete, reqs[0].Method)
		assert.Equal(t, "/posts/7", reqs[0].URL)
	})

	t.Run("root with Args fails", func(t *testing.T) {
		t.Parallel()

		c, _ := newFake(t)
		_, p := c.Root().Call(ctx, client.Args{})
		require.NotNil(t, p)
		_, err := p.Wait()
		require.ErrorIs(t, err, client.ErrInvalidCallState)
	})
}

func TestTraversal_concurrent_invokes(t *testing.T) {
	t.Parallel()

	c, fake := newFake(t)
	root := c.Root().Segment("posts").Param("postId")

	const n = 64
	pending := make([]*client.Pending, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pending[i] = root.Segment("get").Invoke(context.Background(), client.Args{
				Params: map[string]string{"postId": fmt.Sprint(i)},
			})
		}()
	}
	wg.Wait()

	for _, p := range pending {
		_, err := p.Wait()
		require.NoError(t, err)
	}

	urls := make(map[string]bool, n)
	for _, req := range fake.Requests() {
		urls[req.URL] = true
	}
	assert.Len(t, urls, n)
	assert.Equal(t, []string{"posts", ":postId"}, root.Segments())
}

func TestTraversal_transport_error_propagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	c, err := client.New(client.TransportFunc(func(context.Context, client.Request) (*client.Response, error) {
		return nil, boom
	}))
	require.NoError(t, err)

	_, err = c.Root().Segment("posts").Get(context.Background(), client.Args{})
	require.ErrorIs(t, err, boom)
}

package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
)

type post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listPostsReq struct {
	Sort  string `query:"sort" enum:"asc,desc"`
	Limit int    `query:"limit" default:"10"`
}

type getPostReq struct {
	PostID string `path:"postId"`
}

type createPostReq struct {
	Title string `json:"title" required:"true" minLength:"3"`
}

func contractRouter() *rpc.Router {
	r := rpc.New(rpc.WithTitle("Posts"), rpc.WithVersion("1.2.0"))
	rpc.Post(r, "/posts", func(context.Context, *createPostReq) (*post, error) {
		return &post{}, nil
	}, rpc.WithStatus(http.StatusCreated), rpc.WithSummary("Create a post"), rpc.WithTags("posts"))
	rpc.Get(r, "/posts", func(context.Context, *listPostsReq) (*[]post, error) {
		return &[]post{}, nil
	})
	rpc.Get(r, "/posts/:postId", func(context.Context, *getPostReq) (*post, error) {
		return &post{}, nil
	}, rpc.WithOperationID("getPost"), rpc.WithDeprecated())
	rpc.Delete(r, "/posts/:postId", func(context.Context, *getPostReq) (*rpc.Void, error) {
		return nil, nil
	})
	return r
}

func TestRouter_Contract(t *testing.T) {
	t.Parallel()

	c := contractRouter().Contract()

	assert.Equal(t, rpc.ContractFormat, c.Format)
	assert.Equal(t, "Posts", c.Title)
	assert.Equal(t, "1.2.0", c.Version)
	require.Equal(t, 4, c.Len())

	keys := make([]string, 0, c.Len())
	for _, d := range c.Routes {
		keys = append(keys, d.Key().String())
	}
	assert.Equal(t, []string{
		"GET /posts",
		"POST /posts",
		"DELETE /posts/:postId",
		"GET /posts/:postId",
	}, keys)
}

func TestRouter_Contract_descriptors(t *testing.T) {
	t.Parallel()

	c := contractRouter().Contract()

	create, ok := c.Lookup("post", "/posts")
	require.True(t, ok)
	assert.Empty(t, create.Params)
	assert.Nil(t, create.Query)
	require.NotNil(t, create.Body)
	assert.Equal(t, []string{"title"}, create.Body.Required)
	assert.Equal(t, http.StatusCreated, create.Status)
	assert.Equal(t, "Create a post", create.Summary)
	assert.Equal(t, []string{"posts"}, create.Tags)
	assert.Equal(t, "github.com/bjaus/rpc_test.createPostReq", create.Types.Request)
	assert.Equal(t, "github.com/bjaus/rpc_test.post", create.Types.Response)

	list, ok := c.Lookup(http.MethodGet, "/posts")
	require.True(t, ok)
	require.NotNil(t, list.Query)
	assert.Equal(t, []string{"asc", "desc"}, list.Query.Properties["sort"].Enum)
	assert.Equal(t, "10", list.Query.Properties["limit"].Default)
	assert.Nil(t, list.Body)
	require.NotNil(t, list.Response)
	assert.Equal(t, "array", list.Response.Type)
	assert.Equal(t, "[]github.com/bjaus/rpc_test.post", list.Types.Response)

	get, ok := c.Lookup(http.MethodGet, "/posts/:postId/")
	require.True(t, ok)
	assert.Equal(t, []string{"postId"}, get.Params)
	assert.Equal(t, "getPost", get.OperationID)
	assert.True(t, get.Deprecated)

	del, ok := c.Lookup(http.MethodDelete, "/posts/:postId")
	require.True(t, ok)
	assert.Nil(t, del.Response)
	assert.Equal(t, http.StatusNoContent, del.Status)
	assert.Empty(t, del.Types.Response)

	_, ok = c.Lookup(http.MethodGet, "/posts/:id")
	assert.False(t, ok, "param names are part of the pattern")

	_, ok = c.Lookup(http.MethodGet, "/posts/:")
	assert.False(t, ok)
}

func TestRouter_Contract_snapshot(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	before := r.Contract()

	rpc.Get(r, "/authors", reply("a"))

	assert.Equal(t, 4, before.Len())
	assert.Equal(t, 5, r.Contract().Len())
}

func TestRouter_Contract_snapshot_tags_are_copied(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	c := r.Contract()
	d, ok := c.Lookup(http.MethodPost, "/posts")
	require.True(t, ok)
	require.Equal(t, []string{"posts"}, d.Tags)
	d.Tags[0] = "changed"

	d, ok = r.Contract().Lookup(http.MethodPost, "/posts")
	require.True(t, ok)
	assert.Equal(t, []string{"posts"}, d.Tags)
}

func TestRouter_Contract_last_wins(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	rpc.Get(r, "/posts/:id", func(context.Context, *rpc.Void) (*message, error) {
		return &message{}, nil
	})

	c := r.Contract()
	assert.Equal(t, 4, c.Len())
	_, ok := c.Lookup(http.MethodGet, "/posts/:postId")
	assert.False(t, ok)
	d, ok := c.Lookup(http.MethodGet, "/posts/:id")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, d.Params)
}

func TestContract_round_trip(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	want := r.Contract()

	tests := map[string]func(io.Writer) error{
		"json": r.WriteContract,
		"yaml": r.WriteContractYAML,
	}

	for name, write := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, write(&buf))

			got, err := rpc.ReadContract(&buf)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestReadContract_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc     string
		wantErr string
	}{
		"not a document": {
			doc:     "{",
			wantErr: "invalid contract",
		},
		"wrong format": {
			doc:     `{"contract":"other/v2","routes":[]}`,
			wantErr: `unsupported format "other/v2"`,
		},
		"bad version": {
			doc:     `{"contract":"rpc/v1","version":"latest","routes":[]}`,
			wantErr: `version "latest"`,
		},
		"malformed pattern": {
			doc:     `{"contract":"rpc/v1","routes":[{"method":"GET","pattern":"/a/:","params":[]}]}`,
			wantErr: "empty parameter name",
		},
		"params disagree": {
			doc:     `{"contract":"rpc/v1","routes":[{"method":"GET","pattern":"/a/:x","params":["y"]}]}`,
			wantErr: "params [y] do not match pattern",
		},
		"duplicate": {
			doc: "contract: rpc/v1\nroutes:\n" +
				"  - {method: GET, pattern: /a, params: []}\n" +
				"  - {method: GET, pattern: /a, params: []}\n",
			wantErr: "duplicate route GET /a",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := rpc.ReadContract(strings.NewReader(tc.doc))
			require.ErrorIs(t, err, rpc.ErrInvalidContract)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestContract_SemVer(t *testing.T) {
	t.Parallel()

	v, err := contractRouter().Contract().SemVer()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Major())
	assert.Equal(t, uint64(2), v.Minor())

	_, err = rpc.New().Contract().SemVer()
	assert.Error(t, err)
}

func TestRouter_ServeContract(t *testing.T) {
	t.Parallel()

	r := contractRouter()
	r.ServeContract("/contract.json")
	r.ServeContractYAML("/contract.yaml")

	rec := serve(t, r, http.MethodGet, "/contract.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var c rpc.Contract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 4, c.Len(), "document endpoints are not routes")

	rec = serve(t, r, http.MethodGet, "/contract.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "contract: rpc/v1")

	got, err := rpc.ReadContract(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, r.Contract(), got)
}

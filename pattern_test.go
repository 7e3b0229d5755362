package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
)

func TestParsePattern(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern string
		want    []string
	}{
		"two params":          {pattern: "/a/:x/b/:y", want: []string{"x", "y"}},
		"no params":           {pattern: "/posts", want: []string{}},
		"root":                {pattern: "/", want: []string{}},
		"empty":               {pattern: "", want: []string{}},
		"trailing param":      {pattern: "/posts/:postId", want: []string{"postId"}},
		"trailing slash":      {pattern: "/posts/:postId/", want: []string{"postId"}},
		"doubled slashes":     {pattern: "//a//:x//", want: []string{"x"}},
		"no leading slash":    {pattern: "a/:x", want: []string{"x"}},
		"duplicate names":     {pattern: "/:id/:id", want: []string{"id", "id"}},
		"marker mid-segment":  {pattern: "/a:b/:c", want: []string{"c"}},
		"only params":         {pattern: "/:a/:b/:c", want: []string{"a", "b", "c"}},
		"literal method name": {pattern: "/reports/get", want: []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := rpc.ParsePattern(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePattern_malformed(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"/:", "/a/:/b", ":", "/files/{name}", "/x/{$}", "/x/{rest...}", "/:a{b}", "/a}"} {
		_, err := rpc.ParsePattern(pattern)
		require.ErrorIs(t, err, rpc.ErrMalformedPattern, pattern)
	}
}

func TestPatternForms(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern   string
		canonical string
		openAPI   string
		mux       string
	}{
		"params": {
			pattern:   "/posts/:postId/comments/:id",
			canonical: "/posts/:postId/comments/:id",
			openAPI:   "/posts/{postId}/comments/{id}",
			mux:       "/posts/{p0}/comments/{p1}",
		},
		"normalized": {
			pattern:   "posts//:postId/",
			canonical: "/posts/:postId",
			openAPI:   "/posts/{postId}",
			mux:       "/posts/{p0}",
		},
		"root": {
			pattern:   "/",
			canonical: "/",
			openAPI:   "/",
			mux:       "/{$}",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			canonical, openAPI, mux, err := rpc.PatternForms(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.canonical, canonical)
			assert.Equal(t, tc.openAPI, openAPI)
			assert.Equal(t, tc.mux, mux)
		})
	}
}

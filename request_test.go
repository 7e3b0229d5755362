package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/rpc"
)

type bindReq struct {
	rpc.RawRequest
	OrgID   string        `path:"orgId"`
	ID      int           `path:"id"`
	Sort    string        `query:"sort" default:"asc"`
	Limit   int           `query:"limit" default:"10"`
	Tags    []string      `query:"tag"`
	Wait    time.Duration `query:"wait"`
	Since   *int64        `query:"since"`
	Ratio   float64       `query:"ratio"`
	Active  bool          `query:"active"`
	Count   uint8         `query:"count"`
	Trace   string        `header:"X-Trace" default:"none"`
	Session string        `cookie:"session"`
}

type bindResp struct {
	OrgID   string   `json:"orgId"`
	ID      int      `json:"id"`
	Sort    string   `json:"sort"`
	Limit   int      `json:"limit"`
	Tags    []string `json:"tags"`
	Wait    string   `json:"wait"`
	Since   *int64   `json:"since"`
	Ratio   float64  `json:"ratio"`
	Active  bool     `json:"active"`
	Count   uint8    `json:"count"`
	Trace   string   `json:"trace"`
	Session string   `json:"session"`
	RawPath string   `json:"rawPath"`
}

func bindRouter() *rpc.Router {
	r := rpc.New()
	rpc.Get(r, "/orgs/:orgId/items/:id", func(_ context.Context, req *bindReq) (*bindResp, error) {
		return &bindResp{
			OrgID:   req.OrgID,
			ID:      req.ID,
			Sort:    req.Sort,
			Limit:   req.Limit,
			Tags:    req.Tags,
			Wait:    req.Wait.String(),
			Since:   req.Since,
			Ratio:   req.Ratio,
			Active:  req.Active,
			Count:   req.Count,
			Trace:   req.Trace,
			Session: req.Session,
			RawPath: req.Request.URL.Path,
		}, nil
	})
	return r
}

func TestRequest_binding(t *testing.T) {
	t.Parallel()

	since := int64(99)

	tests := map[string]struct {
		target string
		header map[string]string
		cookie *http.Cookie
		want   bindResp
	}{
		"defaults": {
			target: "/orgs/acme/items/3",
			want: bindResp{
				OrgID: "acme", ID: 3, Sort: "asc", Limit: 10, Wait: "0s", Trace: "none",
				RawPath: "/orgs/acme/items/3",
			},
		},
		"everything set": {
			target: "/orgs/acme/items/3?sort=desc&limit=5&tag=a&tag=b&wait=2s&since=99&ratio=0.5&active=true&count=7",
			header: map[string]string{"X-Trace": "t-1"},
			cookie: &http.Cookie{Name: "session", Value: "s-1"},
			want: bindResp{
				OrgID: "acme", ID: 3, Sort: "desc", Limit: 5, Tags: []string{"a", "b"}, Wait: "2s",
				Since: &since, Ratio: 0.5, Active: true, Count: 7, Trace: "t-1", Session: "s-1",
				RawPath: "/orgs/acme/items/3",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, tc.target, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			bindRouter().ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got bindResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequest_binding_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		target     string
		wantDetail string
	}{
		"bad path int":   {target: "/orgs/acme/items/x", wantDetail: "bind path: id"},
		"bad query int":  {target: "/orgs/acme/items/1?limit=many", wantDetail: "bind query: limit"},
		"bad bool":       {target: "/orgs/acme/items/1?active=maybe", wantDetail: "bind query: active"},
		"bad duration":   {target: "/orgs/acme/items/1?wait=soon", wantDetail: "bind query: wait"},
		"uint overflow":  {target: "/orgs/acme/items/1?count=300", wantDetail: "bind query: count"},
		"bad float":      {target: "/orgs/acme/items/1?ratio=half", wantDetail: "bind query: ratio"},
		"bad pointer":    {target: "/orgs/acme/items/1?since=x", wantDetail: "bind query: since"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, bindRouter(), http.MethodGet, tc.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var pd rpc.ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
			assert.Equal(t, http.StatusBadRequest, pd.Status)
			assert.Contains(t, pd.Detail, tc.wantDetail)
		})
	}
}

type createItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type updateItem struct {
	ID   string `path:"id"`
	Body createItem
}

func TestRequest_body(t *testing.T) {
	t.Parallel()

	r := rpc.New()
	rpc.Post(r, "/items", func(_ context.Context, req *createItem) (*createItem, error) {
		return req, nil
	}, rpc.WithStatus(http.StatusCreated))
	rpc.Put(r, "/items/:id", func(_ context.Context, req *updateItem) (*createItem, error) {
		out := req.Body
		out.Name = req.ID + ":" + out.Name
		return &out, nil
	})

	tests := map[string]struct {
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		"whole struct body": {
			method: http.MethodPost, target: "/items", body: `{"name":"a","count":2}`,
			wantStatus: http.StatusCreated, wantBody: `{"name":"a","count":2}`,
		},
		"empty body": {
			method: http.MethodPost, target: "/items", body: ``,
			wantStatus: http.StatusCreated, wantBody: `{"name":"","count":0}`,
		},
		"body field with params": {
			method: http.MethodPut, target: "/items/9", body: `{"name":"b"}`,
			wantStatus: http.StatusOK, wantBody: `{"name":"9:b","count":0}`,
		},
		"invalid json": {
			method: http.MethodPost, target: "/items", body: `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		"wrong type": {
			method: http.MethodPut, target: "/items/9", body: `{"count":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, r, tc.method, tc.target, strings.NewReader(tc.body))
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

type statusResp struct {
	ID string `json:"id"`
}

func (statusResp) StatusCode() int { return http.StatusAccepted }

func (statusResp) SetHeaders(h http.Header) { h.Set("X-Job", "queued") }

func (statusResp) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "job", Value: "1"}}
}

func TestResponse_StatusCoder_headers_cookies(t *testing.T) {
	t.Parallel()

	r := rpc.New()
	rpc.Post(r, "/jobs", func(context.Context, *rpc.Void) (*statusResp, error) {
		return &statusResp{ID: "1"}, nil
	})

	rec := serve(t, r, http.MethodPost, "/jobs", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", rec.Header().Get("X-Job"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "job=1")
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}

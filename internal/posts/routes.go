package posts

import (
	"context"
	"errors"
	"net/http"

	"github.com/bjaus/rpc"
)

// ListPostsReq selects posts for GET /posts.
type ListPostsReq struct {
	Sort  Order `query:"sort" enum:"asc,desc" default:"desc" doc:"Creation time order"`
	Limit int   `query:"limit" default:"10" minimum:"1" maximum:"100" doc:"Maximum number of posts"`
}

// GetPostReq addresses one post.
type GetPostReq struct {
	PostID int64 `path:"postId" doc:"Post ID"`
}

// UpdatePostReq replaces a post's writable fields.
type UpdatePostReq struct {
	PostID int64 `path:"postId" doc:"Post ID"`
	Body   NewPost
}

// DeletePostReq addresses the post to delete.
type DeletePostReq struct {
	PostID int64 `path:"postId" doc:"Post ID"`
}

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
}

type handlers struct {
	store Store
}

// Register adds the post routes and a health check to reg.
func Register(reg rpc.Registrar, store Store) {
	h := &handlers{store: store}

	rpc.Handle(reg, http.MethodGet, "/health", h.health,
		rpc.WithOperationID("health"),
		rpc.WithSummary("Report service health"),
		rpc.WithResponseType[Health](),
	)

	rpc.Get(reg, "/posts", h.list,
		rpc.WithOperationID("listPosts"),
		rpc.WithSummary("List posts"),
		rpc.WithMiddleware(rpc.ValidateQuery[ListPostsReq](), rpc.ETag()),
	)
	rpc.Post(reg, "/posts", h.create,
		rpc.WithOperationID("createPost"),
		rpc.WithSummary("Create a post"),
		rpc.WithStatus(http.StatusCreated),
		rpc.WithMiddleware(rpc.ValidateBody[NewPost]()),
	)
	rpc.Get(reg, "/posts/:postId", h.get,
		rpc.WithOperationID("getPost"),
		rpc.WithSummary("Fetch a post"),
		rpc.WithMiddleware(rpc.ETag()),
	)
	rpc.Put(reg, "/posts/:postId", h.update,
		rpc.WithOperationID("updatePost"),
		rpc.WithSummary("Replace a post"),
		rpc.WithMiddleware(rpc.ValidateBody[NewPost]()),
	)
	rpc.Delete(reg, "/posts/:postId", h.delete,
		rpc.WithOperationID("deletePost"),
		rpc.WithSummary("Delete a post"),
	)
}

func (h *handlers) health(res *rpc.Response, _ *http.Request) error {
	return res.Status(http.StatusOK).JSON(Health{Status: "ok"})
}

func (h *handlers) list(ctx context.Context, req *ListPostsReq) (*[]Post, error) {
	out, err := h.store.List(ctx, ListOptions{Order: req.Sort, Limit: req.Limit})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handlers) create(ctx context.Context, req *NewPost) (*Post, error) {
	return h.store.Create(ctx, *req)
}

func (h *handlers) get(ctx context.Context, req *GetPostReq) (*Post, error) {
	p, err := h.store.Get(ctx, req.PostID)
	return p, notFound(err)
}

func (h *handlers) update(ctx context.Context, req *UpdatePostReq) (*Post, error) {
	p, err := h.store.Update(ctx, req.PostID, req.Body)
	return p, notFound(err)
}

func (h *handlers) delete(ctx context.Context, req *DeletePostReq) (*rpc.Void, error) {
	return nil, notFound(h.store.Delete(ctx, req.PostID))
}

// notFound turns ErrNotFound into a 404 problem.
func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return rpc.NotFound("post not found")
	}
	return err
}

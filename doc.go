// Package rpc is a contract-first HTTP router. Every route registered on a
// Router becomes an entry in a route table that is served to clients as a
// contract document, so the server's routes are the single source of truth
// for both sides.
//
// Patterns mark parameters with ":" and typed handlers never see the
// ResponseWriter:
//
//	r := rpc.New(rpc.WithTitle("Posts"), rpc.WithVersion("1.0.0"))
//	rpc.Get(r, "/posts/:postId", getPost)
//	rpc.Post(r, "/posts", createPost, rpc.WithStatus(http.StatusCreated))
//
// Request types bind parameters with struct tags and take the body from a
// Body field, or from the whole struct when it has no tags:
//
//	type GetPostReq struct {
//	    PostID string `path:"postId"`
//	}
//
// Raw handlers write through an observing Response. Every operation reaches
// the real writer unchanged and is recorded; the first json or send call is
// the terminal one, and its value types the route when no response type was
// declared:
//
//	rpc.Handle(r, "GET", "/health", func(res *rpc.Response, _ *http.Request) error {
//	    return res.Status(http.StatusOK).JSON(health{OK: true})
//	})
//
// Registering the same method and pattern shape again replaces the earlier
// route. When two different shapes overlap and neither is more specific,
// such as "/a/:x/b" and "/a/b/:y", both are kept and the one registered
// first serves the paths they share. A pattern with an empty parameter
// name, or with '{' or '}' in a segment, panics.
//
// The route table is available as a Contract, and as an OpenAPI 3.1 spec:
//
//	r.ServeContract("/contract.json")
//	r.ServeSpec("/openapi.json")
//
// Middleware uses the standard func(http.Handler) http.Handler signature.
package rpc

// Package client dispatches calls to an rpc router without generated code.
//
// A Traversal accumulates path segments. Parameter segments carry the
// ":" marker used at registration, and a terminal verb substitutes them
// from Args.Params and issues one request through the Transport:
//
//	c, _ := client.New(client.NewHTTPTransport("http://localhost:8080"))
//	res, err := c.Root().Segment("posts").Param("postId").Get(ctx, client.Args{
//	    Params: map[string]string{"postId": "42"},
//	})
//
// Invoke reads the method from the last segment instead, for callers that
// assemble the whole call from strings:
//
//	c.Root().Path("/posts/:postId/get").Invoke(ctx, args).Wait()
//
// Without a contract the client cannot know the server's routes, so an
// unmatched parameter stays in the path with its marker and the server
// answers 404. WithContract enables real validation before dispatch.
package client

// Package postsclient is the typed client of the posts API, generated from
// the server's contract.
package postsclient

//go:generate sh -c "go run ../../../cmd/posts -contract | go run ../../../cmd/rpcgen generate -c - -p postsclient -o client_gen.go"

// Command rpcgen validates rpc contracts and generates typed Go clients
// from them.
//
//	rpcgen generate --contract http://localhost:8080/contract.json --out internal/postsclient/client_gen.go
//	rpcgen check --contract contract.yaml --constraint ">=1, <2"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bjaus/rpc/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rpcgen:", err)
		stop()
		os.Exit(1)
	}
}

// Package cli implements the rpcgen command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bjaus/rpc"
)

// Execute runs the rpcgen root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rpcgen",
		Short:         "Work with rpc contract documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newGenerateCmd(), newCheckCmd())
	return cmd
}

// loadContract reads a contract from a file path, "-" for stdin, or an
// http(s) URL such as a server's /contract.json endpoint.
func loadContract(ctx context.Context, src string, stdin io.Reader) (rpc.Contract, error) {
	switch {
	case src == "":
		return rpc.Contract{}, errors.New("--contract is required")
	case src == "-":
		return rpc.ReadContract(stdin)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return rpc.Contract{}, fmt.Errorf("fetch contract: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return rpc.Contract{}, fmt.Errorf("fetch contract: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body
		if resp.StatusCode != http.StatusOK {
			return rpc.Contract{}, fmt.Errorf("fetch contract: %s: %s", src, resp.Status)
		}
		return rpc.ReadContract(resp.Body)
	default:
		f, err := os.Open(src)
		if err != nil {
			return rpc.Contract{}, fmt.Errorf("open contract: %w", err)
		}
		defer f.Close() //nolint:errcheck // read-only file
		return rpc.ReadContract(f)
	}
}

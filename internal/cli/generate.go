package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bjaus/rpc/codegen"
)

type generateOptions struct {
	contract string
	pkg      string
	typeName string
	out      string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a typed Go client from a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadContract(cmd.Context(), opts.contract, cmd.InOrStdin())
			if err != nil {
				return err
			}

			pkg := opts.pkg
			if pkg == "" && opts.out != "" {
				pkg = filepath.Base(filepath.Dir(opts.out))
			}
			source := ""
			if opts.contract != "-" {
				source = filepath.Base(opts.contract)
			}
			src, err := codegen.Generate(c, codegen.Options{
				Package:  pkg,
				TypeName: opts.typeName,
				Source:   source,
			})
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			if opts.out == "" {
				_, err := cmd.OutOrStdout().Write(src)
				return err
			}
			if err := os.WriteFile(opts.out, src, 0o644); err != nil { //nolint:gosec // generated source is world-readable
				return fmt.Errorf("write %s: %w", opts.out, err)
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d routes)\n", opts.out, c.Len())
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.contract, "contract", "c", "", "contract document: file, URL, or - for stdin")
	fs.StringVarP(&opts.pkg, "package", "p", "", "package name (default: directory of --out)")
	fs.StringVar(&opts.typeName, "type", "Client", "client type name")
	fs.StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	contract   string
	constraint string
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a contract and optionally its version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadContract(cmd.Context(), opts.contract, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if opts.constraint != "" {
				cons, err := semver.NewConstraint(opts.constraint)
				if err != nil {
					return fmt.Errorf("constraint %q: %w", opts.constraint, err)
				}
				v, err := c.SemVer()
				if err != nil {
					return fmt.Errorf("contract version %q: %w", c.Version, err)
				}
				if !cons.Check(v) {
					return fmt.Errorf("contract version %s does not satisfy %s", v, opts.constraint)
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d routes ok\n", c.Title, c.Version, c.Len())
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.contract, "contract", "c", "", "contract document: file, URL, or - for stdin")
	fs.StringVar(&opts.constraint, "constraint", "", `semantic version constraint, e.g. ">=1.2, <2"`)
	return cmd
}

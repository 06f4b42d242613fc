package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManikGarg316/rest-catalog-server/internal/cli/ui"
	"github.com/ManikGarg316/rest-catalog-server/internal/credentials"
	"github.com/ManikGarg316/rest-catalog-server/internal/envconfig"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved configuration of every backend",
		Long: `Resolve each backend's properties from the environment exactly as serve
would, without building catalogs. Secret values are redacted and any
temporary warehouse created for the preview is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var cleanup []error
			for i, b := range s.deployment.Backends {
				res, err := envconfig.Resolve(s.environ, b.Options())
				if err != nil {
					return errors.Join(fmt.Errorf("backend %s: %w", b.Name, err), errors.Join(cleanup...))
				}

				if i > 0 {
					fmt.Fprintln(out)
				}
				ui.Header(out, fmt.Sprintf("%s (%s)", b.Name, b.Prefix), noColor)
				ui.PropertiesTable(out, credentials.Redact(res.Properties), noColor)
				if res.TempDir != "" {
					fmt.Fprintln(out, "warehouse falls back to a temporary directory when served")
				}

				cleanup = append(cleanup, res.Cleanup())
			}
			return errors.Join(cleanup...)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

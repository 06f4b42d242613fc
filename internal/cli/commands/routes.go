package commands

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ManikGarg316/rest-catalog-server/internal/cli/ui"
	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/router"
)

// NewRoutesCommand creates the routes command
func NewRoutesCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes every backend serves",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			mux := router.NewRouter()
			for _, b := range s.deployment.Backends {
				if err := mux.Mount(b.Name, b.Prefix, http.NotFoundHandler(), rest.Routes()); err != nil {
					return err
				}
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"Backend", "Method", "Path", "Route"}, &ui.TableOptions{NoColor: noColor})
			for _, info := range mux.GetRoutes() {
				table.AddRow(info.Backend, info.Method, info.Pattern, info.Route)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/bootstrap"
)

type serveOptions struct {
	port int
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog server",
		Long: `Resolve every backend, build its catalog and serve all of them on one
listener until SIGINT or SIGTERM. Startup fails if any backend fails.

Without --config or REST_CONFIG_FILE the stock backends fall back to
temporary warehouses when CATALOG_WAREHOUSE is unset. Pass
--config deploy/catalog-server.yaml for the production bucket defaults.

Set REST_TLS_CERT_FILE and REST_TLS_KEY_FILE to serve HTTPS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides REST_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if opts.port > 0 {
		s.env.Port = opts.port
	}

	logger, err := s.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := bootstrap.New(cmd.Context(), bootstrap.Config{
		Deployment: s.deployment,
		Settings:   s.env,
		Environ:    s.environ,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		return err
	}

	return svc.Run(cmd.Context())
}

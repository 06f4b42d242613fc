// Package bootstrap wires the configured catalog backends into one HTTP
// server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/catalog/filesystem"
	"github.com/ManikGarg316/rest-catalog-server/internal/catalog/jdbc"
	"github.com/ManikGarg316/rest-catalog-server/internal/cli/config"
	"github.com/ManikGarg316/rest-catalog-server/internal/credentials"
	"github.com/ManikGarg316/rest-catalog-server/internal/envconfig"
	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/middleware"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/router"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/server"
)

// Config holds everything needed to start the service
type Config struct {
	// Deployment lists the backends; config.Default() when nil
	Deployment *config.Config

	// Settings are the REST_* process settings
	Settings config.Env

	// Environ is the environment snapshot the backends resolve from
	Environ map[string]string

	// Registry builds catalogs; DefaultRegistry() when nil
	Registry *catalog.Registry

	// TempDir overrides how fallback warehouses are created
	TempDir func(dir, pattern string) (string, error)

	Logger *zap.Logger
}

// Backend is one served catalog
type Backend struct {
	Name       string
	Prefix     string
	Context    *catalog.Context
	Resolution *envconfig.Resolution
}

// Service is a started set of backends behind one listener
type Service struct {
	logger   *zap.Logger
	router   *router.Router
	server   *server.Server
	shutdown *server.GracefulShutdown
	backends []*Backend
}

// DefaultRegistry knows the filesystem and JDBC catalogs
func DefaultRegistry() *catalog.Registry {
	r := catalog.NewRegistry()
	filesystem.Register(r)
	jdbc.Register(r)
	return r
}

// New resolves and builds every backend. Nothing is served until Run; if
// any backend fails, the ones already built are released.
func New(ctx context.Context, cfg Config) (*Service, error) {
	logger := logging.OrNop(cfg.Logger)
	deployment := cfg.Deployment
	if deployment == nil {
		deployment = config.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	if err := checkBackends(deployment.Backends); err != nil {
		return nil, err
	}

	mux := router.NewRouter()
	mux.Use(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
		middleware.Timeout(cfg.Settings.RequestTimeout),
	)
	if cfg.Settings.Compression {
		mux.Use(middleware.Compression())
	}

	s := &Service{logger: logger, router: mux}
	for _, bc := range deployment.Backends {
		b, err := s.buildBackend(ctx, bc, cfg, registry)
		if err != nil {
			return nil, errors.Join(err, s.release())
		}
		s.backends = append(s.backends, b)
	}

	serverConfig := server.DefaultConfig(mux)
	serverConfig.Address = cfg.Settings.Address()
	if cfg.Settings.TLSEnabled() {
		serverConfig.TLSConfig = &server.TLSConfig{
			CertFile: cfg.Settings.TLSCertFile,
			KeyFile:  cfg.Settings.TLSKeyFile,
		}
	}
	srv, err := server.New(serverConfig)
	if err != nil {
		return nil, errors.Join(err, s.release())
	}
	s.server = srv

	s.shutdown = server.NewGracefulShutdown(srv, &server.ShutdownConfig{
		Timeout: cfg.Settings.ShutdownTimeout,
		Logger:  logger,
	})
	for _, b := range s.backends {
		s.registerHooks(b)
	}
	return s, nil
}

func (s *Service) buildBackend(ctx context.Context, bc config.BackendConfig, cfg Config, registry *catalog.Registry) (*Backend, error) {
	logger := s.logger.With(zap.String("backend", bc.Name))
	prefix, err := router.NormalizePrefix(bc.Prefix)
	if err != nil {
		return nil, err
	}

	opts := bc.Options()
	opts.Logger = logger
	if cfg.TempDir != nil {
		opts.TempDir = cfg.TempDir
	}

	res, err := envconfig.Resolve(cfg.Environ, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration for %s: %w", bc.Name, err)
	}
	logger.Info("Resolved catalog configuration",
		zap.String("prefix", prefix),
		zap.Any("properties", credentials.Redact(res.Properties)),
	)

	cc, err := catalog.NewContext(ctx, bc.Name, res.Properties, registry, logger)
	if err != nil {
		return nil, errors.Join(err, res.Cleanup())
	}

	backend := &Backend{Name: bc.Name, Prefix: prefix, Context: cc, Resolution: res}

	var handler rest.Handler = rest.NewCatalogAdapter(cc.Catalog())
	handler = credentials.NewAdapter(handler, cc)
	httpHandler := middleware.Backend(bc.Name)(rest.NewHTTPHandler(handler, logger))

	if err := s.router.Mount(bc.Name, prefix, httpHandler, rest.Routes()); err != nil {
		return nil, errors.Join(err, closeBackend(backend))
	}

	logger.Info("Catalog backend mounted",
		zap.String("prefix", prefix),
		zap.Bool("include_credentials", credentials.Enabled(res.Properties)),
	)
	return backend, nil
}

func (s *Service) registerHooks(b *Backend) {
	s.shutdown.RegisterHook("close catalog "+b.Name, func(ctx context.Context) error {
		return b.Context.Close()
	})
	if b.Resolution.TempDir != "" {
		s.shutdown.RegisterHook("remove temp warehouse "+b.Name, func(ctx context.Context) error {
			return b.Resolution.Cleanup()
		})
	}
}

// release closes the backends built so far, used when New fails
func (s *Service) release() error {
	var errs []error
	for _, b := range s.backends {
		errs = append(errs, closeBackend(b))
	}
	s.backends = nil
	return errors.Join(errs...)
}

func closeBackend(b *Backend) error {
	return errors.Join(b.Context.Close(), b.Resolution.Cleanup())
}

// checkBackends rejects duplicate names and prefixes before anything is built
func checkBackends(backends []config.BackendConfig) error {
	if len(backends) == 0 {
		return fmt.Errorf("no catalog backends configured")
	}

	names := make(map[string]bool, len(backends))
	prefixes := make(map[string]string, len(backends))
	for _, b := range backends {
		if b.Name == "" {
			return fmt.Errorf("backend name is required")
		}
		if names[b.Name] {
			return fmt.Errorf("duplicate backend name %q", b.Name)
		}
		names[b.Name] = true

		prefix, err := router.NormalizePrefix(b.Prefix)
		if err != nil {
			return fmt.Errorf("backend %s: %w", b.Name, err)
		}
		if owner, ok := prefixes[prefix]; ok {
			return fmt.Errorf("backends %s and %s share prefix %s", owner, b.Name, prefix)
		}
		prefixes[prefix] = b.Name
	}
	return nil
}

// Handler returns the root handler with every backend mounted
func (s *Service) Handler() http.Handler {
	return s.router
}

// Backends returns the built backends in configuration order
func (s *Service) Backends() []*Backend {
	return s.backends
}

// Routes returns the mounted routes
func (s *Service) Routes() []*router.RouteInfo {
	return s.router.GetRoutes()
}

// Addr returns the listen address, resolved once Run has bound it
func (s *Service) Addr() string {
	return s.server.Addr()
}

// Listen binds the listener ahead of Run
func (s *Service) Listen() error {
	return s.server.Listen()
}

// Run serves until a signal arrives or ctx is done, then shuts down
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("Serving catalogs", zap.Int("backends", len(s.backends)))
	return s.shutdown.Start(ctx)
}

// Close releases everything without serving; it is safe after Run
func (s *Service) Close() error {
	return s.shutdown.Shutdown()
}

package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
)

// GracefulShutdown serves until a signal or context cancellation, then
// drains the server and runs the registered hooks
type GracefulShutdown struct {
	server        *Server
	shutdownHooks []namedHook
	timeout       time.Duration
	signals       []os.Signal
	logger        *zap.Logger
	mu            sync.Mutex
	shutdownOnce  sync.Once
	shutdownChan  chan struct{}
	shutdownError error
}

// ShutdownHook is a function called during graceful shutdown
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   ShutdownHook
}

// ShutdownConfig holds graceful shutdown configuration
type ShutdownConfig struct {
	// Timeout is the maximum time to wait for shutdown
	Timeout time.Duration

	// Signals to listen for (default: SIGINT, SIGTERM)
	Signals []os.Signal

	// Logger for shutdown messages
	Logger *zap.Logger
}

// DefaultShutdownConfig returns default shutdown configuration
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// NewGracefulShutdown creates a new graceful shutdown handler. server may
// be nil when only the hooks are needed.
func NewGracefulShutdown(server *Server, config *ShutdownConfig) *GracefulShutdown {
	if config == nil {
		config = DefaultShutdownConfig()
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	signals := config.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	return &GracefulShutdown{
		server:       server,
		timeout:      timeout,
		signals:      signals,
		logger:       logging.OrNop(config.Logger),
		shutdownChan: make(chan struct{}),
	}
}

// RegisterHook registers a shutdown hook. Hooks run in registration order
// after the server has drained; a failing hook does not stop the others.
func (gs *GracefulShutdown) RegisterHook(name string, hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdownHooks = append(gs.shutdownHooks, namedHook{name: name, fn: hook})
}

// Start serves and blocks until a signal arrives, ctx is done or the server
// fails. Shutdown runs in every case.
func (gs *GracefulShutdown) Start(ctx context.Context) error {
	if gs.server == nil {
		return fmt.Errorf("no server to start")
	}

	if err := gs.server.Listen(); err != nil {
		return withShutdown(err, gs.Shutdown())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, gs.signals...)
	defer signal.Stop(quit)

	errChan := make(chan error, 1)
	go func() {
		gs.logger.Info("Starting server", zap.String("address", gs.server.Addr()))
		errChan <- gs.server.Start()
	}()

	select {
	case sig := <-quit:
		gs.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
		gs.logger.Info("Context canceled, shutting down")
	case err := <-errChan:
		if err != nil {
			gs.logger.Error("Server stopped unexpectedly", zap.Error(err))
			return withShutdown(err, gs.Shutdown())
		}
	}

	return gs.Shutdown()
}

// Shutdown drains the server and runs the hooks once
func (gs *GracefulShutdown) Shutdown() error {
	gs.shutdownOnce.Do(func() {
		gs.logger.Info("Initiating graceful shutdown", zap.Duration("timeout", gs.timeout))

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if gs.server != nil {
			if err := gs.server.Shutdown(ctx); err != nil {
				gs.shutdownError = fmt.Errorf("server shutdown error: %w", err)
				gs.logger.Error("Server shutdown error", zap.Error(err))
			}
		}

		gs.mu.Lock()
		hooks := make([]namedHook, len(gs.shutdownHooks))
		copy(hooks, gs.shutdownHooks)
		gs.mu.Unlock()

		for _, hook := range hooks {
			if err := hook.fn(ctx); err != nil {
				gs.logger.Warn("Shutdown hook failed", zap.String("hook", hook.name), zap.Error(err))
			}
		}

		gs.logger.Info("Shutdown completed", zap.Int("hooks", len(hooks)))
		close(gs.shutdownChan)
	})

	<-gs.shutdownChan
	return gs.shutdownError
}

// Wait blocks until shutdown is complete
func (gs *GracefulShutdown) Wait() error {
	<-gs.shutdownChan
	return gs.shutdownError
}

func withShutdown(err, shutdownErr error) error {
	if shutdownErr != nil {
		return fmt.Errorf("%w (shutdown: %v)", err, shutdownErr)
	}
	return err
}

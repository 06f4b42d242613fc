// Package server runs the catalog HTTP listener.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Server wraps an http.Server with a production-ready configuration
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
}

// Config holds server configuration
type Config struct {
	// Address is the server listen address (e.g., ":8181")
	Address string

	// Handler is the HTTP handler for the server
	Handler http.Handler

	// TLS configuration, nil for plain HTTP
	TLSConfig *TLSConfig

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration

	// Connection limits
	MaxHeaderBytes int

	// HTTP/2 settings
	EnableHTTP2 bool
}

// TLSConfig holds TLS/SSL configuration
type TLSConfig struct {
	// CertFile is the path to the TLS certificate
	CertFile string

	// KeyFile is the path to the TLS private key
	KeyFile string

	// MinVersion is the minimum TLS version (default: TLS 1.2)
	MinVersion uint16

	// Custom tls.Config (optional)
	Config *tls.Config
}

// DefaultConfig returns a production-ready server configuration
func DefaultConfig(handler http.Handler) *Config {
	return &Config{
		Address:           ":8181",
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
		EnableHTTP2:       true,
	}
}

// New creates a new server instance
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}

	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           config.Handler,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
	}

	if config.TLSConfig != nil {
		tlsConfig, err := buildTLSConfig(config.TLSConfig, config.EnableHTTP2)
		if err != nil {
			return nil, err
		}
		httpServer.TLSConfig = tlsConfig
	}

	return &Server{
		httpServer: httpServer,
		config:     config,
	}, nil
}

// Listen binds the listener without serving. Start calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	if s.httpServer.TLSConfig != nil {
		listener = tls.NewListener(listener, s.httpServer.TLSConfig)
	}
	s.listener = listener
	return nil
}

// Start serves until Shutdown or Close. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close immediately closes the server
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// Addr returns the server's network address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// buildTLSConfig builds a TLS configuration with HTTP/2 support
func buildTLSConfig(tlsConfig *TLSConfig, enableHTTP2 bool) (*tls.Config, error) {
	var config *tls.Config
	if tlsConfig.Config != nil {
		config = tlsConfig.Config.Clone()
	} else {
		config = &tls.Config{MinVersion: tlsConfig.MinVersion}
		if config.MinVersion == 0 {
			config.MinVersion = tls.VersionTLS12
		}
	}

	if tlsConfig.CertFile != "" || tlsConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		config.Certificates = append(config.Certificates, cert)
	}

	if enableHTTP2 {
		config.NextProtos = []string{"h2", "http/1.1"}
	}
	return config, nil
}

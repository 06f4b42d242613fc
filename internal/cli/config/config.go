// Package config loads process settings from the environment and backend
// definitions from the deployment file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/ManikGarg316/rest-catalog-server/internal/envconfig"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/router"
)

// Env holds the process settings read from REST_* variables
type Env struct {
	Port            int           `env:"REST_PORT"             envDefault:"8181"`
	Host            string        `env:"REST_HOST"`
	ConfigFile      string        `env:"REST_CONFIG_FILE"`
	LogLevel        string        `env:"REST_LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"REST_LOG_FORMAT"       envDefault:"json"`
	ShutdownTimeout time.Duration `env:"REST_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"REST_REQUEST_TIMEOUT"  envDefault:"60s"`
	Compression     bool          `env:"REST_COMPRESSION"      envDefault:"true"`

	// TLSCertFile and TLSKeyFile switch the listener to HTTPS when both are set
	TLSCertFile string `env:"REST_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"REST_TLS_KEY_FILE"`
}

// TLSEnabled reports whether a certificate pair is configured
func (e Env) TLSEnabled() bool {
	return e.TLSCertFile != "" && e.TLSKeyFile != ""
}

// Address returns the listen address
func (e Env) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ParseEnv loads Env from an environment snapshot
func ParseEnv(environ map[string]string) (Env, error) {
	var cfg Env
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Env{}, fmt.Errorf("REST_PORT must be between 0 and 65535, got %d", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		return Env{}, fmt.Errorf("REST_SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}
	if cfg.RequestTimeout < 0 {
		return Env{}, fmt.Errorf("REST_REQUEST_TIMEOUT must not be negative, got %s", cfg.RequestTimeout)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return Env{}, errors.New("REST_TLS_CERT_FILE and REST_TLS_KEY_FILE must be set together")
	}
	return cfg, nil
}

// Config represents the deployment file
type Config struct {
	Backends []BackendConfig `mapstructure:"backends"`
}

// BackendConfig describes one catalog backend
type BackendConfig struct {
	Name      string `mapstructure:"name"`
	Prefix    string `mapstructure:"prefix"`
	EnvPrefix string `mapstructure:"env_prefix"`

	// ForcedImpl overrides catalog-impl; nil means the filesystem catalog
	// and an empty string leaves the environment's value alone
	ForcedImpl   *string           `mapstructure:"forced_impl"`
	FallbackType string            `mapstructure:"fallback_type"`
	Defaults     map[string]string `mapstructure:"defaults"`
}

// Options converts the backend definition to resolver options
func (b BackendConfig) Options() envconfig.Options {
	opts := envconfig.DefaultOptions()
	if b.EnvPrefix != "" {
		opts.Prefix = b.EnvPrefix
	}
	if b.ForcedImpl != nil {
		opts.ForcedImpl = *b.ForcedImpl
	}
	if b.FallbackType != "" {
		opts.FallbackType = b.FallbackType
	}
	opts.Defaults = make(map[string]string, len(b.Defaults))
	for k, v := range b.Defaults {
		opts.Defaults[strings.ToLower(k)] = v
	}
	return opts
}

// DefaultBackends returns the two stock backends. Both read CATALOG_*
// variables and fall back to temporary warehouses; the bucket defaults of
// the production deployment live in deploy/catalog-server.yaml.
func DefaultBackends() []BackendConfig {
	return []BackendConfig{
		{Name: "catalog1", Prefix: "/catalog1", EnvPrefix: envconfig.DefaultPrefix},
		{Name: "catalog2", Prefix: "/catalog2", EnvPrefix: envconfig.DefaultPrefix},
	}
}

// Default returns the configuration used when no deployment file is given
func Default() *Config {
	return &Config{Backends: DefaultBackends()}
}

// Load reads the deployment file at path. An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if !strings.Contains(path, ".") {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(config.Backends) == 0 {
		config.Backends = DefaultBackends()
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	var errs []error
	names := make(map[string]bool)
	prefixes := make(map[string]string)

	for i, b := range cfg.Backends {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("backends[%d]: name is required", i))
		} else if names[b.Name] {
			errs = append(errs, fmt.Errorf("backends[%d]: duplicate name %q", i, b.Name))
		}
		names[b.Name] = true

		prefix, err := router.NormalizePrefix(b.Prefix)
		if err != nil {
			errs = append(errs, fmt.Errorf("backends[%d]: %w", i, err))
		} else if owner, ok := prefixes[prefix]; ok {
			errs = append(errs, fmt.Errorf("backends[%d]: prefix %s is already used by %q", i, prefix, owner))
		} else {
			prefixes[prefix] = b.Name
		}
	}
	return errors.Join(errs...)
}

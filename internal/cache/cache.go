// Package cache stores immutable metadata documents keyed by location.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is implemented by every cache backend
type Cache interface {
	// Get returns the value for key or ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; zero ttl uses the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; missing keys are ignored
	Delete(ctx context.Context, key string) error

	// Close releases background resources
	Close() error
}

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Config holds settings shared by all backends
type Config struct {
	// DefaultTTL applies when Set is called with a zero ttl
	DefaultTTL time.Duration
	// Prefix is prepended to every key
	Prefix string
}

// DefaultConfig returns the settings used when a catalog does not override them
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 30 * time.Second,
		Prefix:     "rest-catalog:",
	}
}

// Open returns a RedisCache when redisURL is set and a MemoryCache otherwise
func Open(ctx context.Context, redisURL string, config Config) (Cache, error) {
	if redisURL == "" {
		return NewMemoryCache(config), nil
	}
	return NewRedisCacheFromURL(ctx, redisURL, config)
}

// Nop is a cache that never stores anything
type Nop struct{}

// Get always misses
func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing
func (Nop) Delete(context.Context, string) error { return nil }

// Close does nothing
func (Nop) Close() error { return nil }

// Package envconfig translates a process environment snapshot into catalog
// properties.
//
// A variable CATALOG_A__B_C becomes the property "a-b.c": the prefix is
// stripped, double underscores become dashes, remaining underscores become
// dots and the result is lowercased. Values are passed through untouched.
package envconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
)

const (
	// DefaultPrefix selects the environment variables that configure a catalog
	DefaultPrefix = "CATALOG_"

	tempDirPattern = "iceberg_warehouse"
	tempDataDir    = "iceberg_data"
)

// ErrDuplicateKey is matched by errors returned when two variables collide
var ErrDuplicateKey = errors.New("duplicate catalog property")

// DuplicateKeyError reports environment variables that normalize to one key
type DuplicateKeyError struct {
	Key   string
	Names []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q from environment variables %s", e.Key, strings.Join(e.Names, ", "))
}

// Unwrap lets errors.Is match ErrDuplicateKey
func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// Options controls the defaults applied on top of the translated environment
type Options struct {
	// Prefix selects variables; DefaultPrefix when empty
	Prefix string

	// ForcedImpl always replaces catalog-impl; empty leaves it alone
	ForcedImpl string

	// FallbackType is set for "type" when the environment does not set it
	FallbackType string

	// Defaults are deployment properties (e.g. warehouse) applied if absent
	Defaults map[string]string

	// TempDir creates the fallback warehouse directory; os.MkdirTemp when nil
	TempDir func(dir, pattern string) (string, error)

	// Logger receives the fallback notice; no-op when nil
	Logger *zap.Logger
}

// DefaultOptions returns the options of a stock deployment
func DefaultOptions() Options {
	return Options{
		Prefix:       DefaultPrefix,
		ForcedImpl:   catalog.ImplHadoop,
		FallbackType: catalog.TypeJDBC,
	}
}

// Resolution is the output of Resolve
type Resolution struct {
	// Properties is the resolved catalog configuration
	Properties catalog.Properties

	// TempDir is the fallback warehouse directory, empty when none was made
	TempDir string
}

// Cleanup removes the fallback warehouse directory. It is best-effort and
// safe to call more than once.
func (r *Resolution) Cleanup() error {
	if r == nil || r.TempDir == "" {
		return nil
	}
	if err := os.RemoveAll(r.TempDir); err != nil {
		return fmt.Errorf("failed to remove temp warehouse %s: %w", r.TempDir, err)
	}
	return nil
}

// Key normalizes an environment variable name (prefix already stripped)
func Key(name string) string {
	key := strings.ReplaceAll(name, "__", "-")
	key = strings.ReplaceAll(key, "_", ".")
	return strings.ToLower(key)
}

// Translate filters env by prefix and normalizes names into property keys
func Translate(env map[string]string, prefix string) (catalog.Properties, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	names := make([]string, 0, len(env))
	for name := range env {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	props := make(catalog.Properties, len(names))
	sources := make(map[string]string, len(names))
	for _, name := range names {
		key := Key(strings.TrimPrefix(name, prefix))
		if first, ok := sources[key]; ok {
			return nil, &DuplicateKeyError{Key: key, Names: []string{first, name}}
		}
		sources[key] = name
		props[key] = env[name]
	}
	return props, nil
}

// Resolve builds catalog properties from an environment snapshot
func Resolve(env map[string]string, opts Options) (*Resolution, error) {
	props, err := Translate(env, opts.Prefix)
	if err != nil {
		return nil, err
	}

	if opts.ForcedImpl != "" {
		props[catalog.KeyCatalogImpl] = opts.ForcedImpl
	}
	if opts.FallbackType != "" {
		setIfAbsent(props, catalog.KeyType, opts.FallbackType)
	}
	for key, value := range opts.Defaults {
		setIfAbsent(props, key, value)
	}

	res := &Resolution{Properties: props}
	if _, ok := props[catalog.KeyWarehouse]; ok {
		return res, nil
	}

	mkdirTemp := opts.TempDir
	if mkdirTemp == nil {
		mkdirTemp = os.MkdirTemp
	}
	tmp, err := mkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp warehouse: %w", err)
	}
	location, err := filepath.Abs(filepath.Join(tmp, tempDataDir))
	if err != nil {
		_ = os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to resolve temp warehouse: %w", err)
	}

	res.TempDir = tmp
	props[catalog.KeyWarehouse] = location

	logging.OrNop(opts.Logger).Info("No warehouse location set, defaulting to temp location",
		zap.String("warehouse", location))

	return res, nil
}

func setIfAbsent(props catalog.Properties, key, value string) {
	if _, ok := props[key]; !ok {
		props[key] = value
	}
}

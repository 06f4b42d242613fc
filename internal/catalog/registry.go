package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Builder constructs a catalog from its resolved properties
type Builder func(ctx context.Context, name string, props Properties, logger *zap.Logger) (Catalog, error)

// Registry maps implementation identifiers to builders
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register binds builder to every given identifier; identifiers are
// matched case-insensitively
func (r *Registry) Register(builder Builder, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		r.builders[strings.ToLower(name)] = builder
	}
}

// Names returns the registered identifiers, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build selects a builder by catalog-impl, falling back to type
func (r *Registry) Build(ctx context.Context, name string, props Properties, logger *zap.Logger) (Catalog, error) {
	impl := Implementation(props)
	if impl == "" {
		return nil, fmt.Errorf("%w: neither %s nor %s is set", ErrUnknownImpl, KeyCatalogImpl, KeyType)
	}

	r.mu.RLock()
	builder, ok := r.builders[strings.ToLower(impl)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImpl, impl)
	}

	cat, err := builder(ctx, name, props, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog %s (%s): %w", name, impl, err)
	}
	return cat, nil
}

// Implementation returns the identifier Build would use for props
func Implementation(props Properties) string {
	if impl := strings.TrimSpace(props[KeyCatalogImpl]); impl != "" {
		return impl
	}
	return strings.TrimSpace(props[KeyType])
}

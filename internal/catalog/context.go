package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
)

// Context pairs a constructed catalog with the properties it was built
// from. It is immutable after NewContext returns.
type Context struct {
	name    string
	catalog Catalog
	props   Properties
}

// NewContext builds the catalog for one backend. A construction error means
// the backend must not be served.
func NewContext(ctx context.Context, name string, props Properties, registry *Registry, logger *zap.Logger) (*Context, error) {
	if registry == nil {
		return nil, fmt.Errorf("catalog registry is required")
	}

	owned := CloneProperties(props)
	cat, err := registry.Build(ctx, name, CloneProperties(owned), logging.OrNop(logger).With(zap.String("catalog", name)))
	if err != nil {
		return nil, err
	}

	return &Context{
		name:    name,
		catalog: cat,
		props:   owned,
	}, nil
}

// Name returns the backend name
func (c *Context) Name() string {
	return c.name
}

// Catalog returns the catalog handle
func (c *Context) Catalog() Catalog {
	return c.catalog
}

// Properties returns a copy of the resolved configuration
func (c *Context) Properties() Properties {
	return CloneProperties(c.props)
}

// Property returns a single configuration value
func (c *Context) Property(key string) (string, bool) {
	v, ok := c.props[key]
	return v, ok
}

// Close closes the catalog
func (c *Context) Close() error {
	return c.catalog.Close()
}

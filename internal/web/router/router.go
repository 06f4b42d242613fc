// Package router mounts catalog backends under path prefixes of one mux.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/middleware"
)

// Router manages HTTP routing using chi framework
type Router struct {
	mux chi.Router

	// Middleware chain, recorded for introspection
	chain *middleware.Chain

	backends map[string]*Backend
	prefixes map[string]string

	// For introspection and debugging
	registeredRoutes []*RouteInfo
}

// Backend is a handler mounted under a prefix
type Backend struct {
	Name    string
	Prefix  string
	Handler http.Handler
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Backend    string
	Method     string
	Pattern    string
	Route      string
	Parameters []string
}

// NewRouter creates a new Router instance with error-model fallbacks
func NewRouter() *Router {
	r := &Router{
		mux:              chi.NewRouter(),
		chain:            middleware.NewChain(),
		backends:         make(map[string]*Backend),
		prefixes:         make(map[string]string),
		registeredRoutes: make([]*RouteInfo, 0),
	}

	eh := NewErrorHandler()
	r.mux.NotFound(eh.NotFoundHandler())
	r.mux.MethodNotAllowed(eh.MethodNotAllowedHandler())
	return r
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware to every mounted backend. It must be called before
// the first Mount.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.chain.Use(m)
		r.mux.Use(m)
	}
}

// MiddlewareCount returns the number of router-wide middleware
func (r *Router) MiddlewareCount() int {
	return r.chain.Len()
}

// Mount serves handler under prefix. routes describes what the handler
// serves and only feeds GetRoutes.
func (r *Router) Mount(name, prefix string, handler http.Handler, routes []rest.RouteSpec) error {
	prefix, err := NormalizePrefix(prefix)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("backend name is required")
	}
	if _, ok := r.backends[name]; ok {
		return fmt.Errorf("backend %q is already mounted", name)
	}
	if owner, ok := r.prefixes[prefix]; ok {
		return fmt.Errorf("prefix %s is already mounted by backend %q", prefix, owner)
	}
	for existing, owner := range r.prefixes {
		if strings.HasPrefix(prefix+"/", existing+"/") || strings.HasPrefix(existing+"/", prefix+"/") {
			return fmt.Errorf("prefix %s overlaps %s of backend %q", prefix, existing, owner)
		}
	}

	r.mux.Mount(prefix, handler)
	r.backends[name] = &Backend{Name: name, Prefix: prefix, Handler: handler}
	r.prefixes[prefix] = name

	for _, spec := range routes {
		r.registeredRoutes = append(r.registeredRoutes, &RouteInfo{
			Backend:    name,
			Method:     spec.Method,
			Pattern:    prefix + spec.Path,
			Route:      spec.Route.String(),
			Parameters: extractParameters(spec.Path),
		})
	}
	return nil
}

// Backends returns the mounted backends sorted by prefix
func (r *Router) Backends() []*Backend {
	out := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// GetRoutes returns all registered routes for introspection
func (r *Router) GetRoutes() []*RouteInfo {
	return r.registeredRoutes
}

// NormalizePrefix returns prefix with one leading slash and no trailing
// slash. The root prefix is rejected so backends never shadow each other.
func NormalizePrefix(prefix string) (string, error) {
	trimmed := "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	if trimmed == "/" {
		return "", fmt.Errorf("invalid prefix %q: must name a path segment", prefix)
	}
	if strings.ContainsAny(trimmed, "{}*") {
		return "", fmt.Errorf("invalid prefix %q: patterns are not allowed", prefix)
	}
	return trimmed, nil
}

// extractParameters extracts parameter names from a route pattern
func extractParameters(pattern string) []string {
	params := make([]string, 0)
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params = append(params, strings.Trim(part, "{}"))
		}
	}
	return params
}

package context

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	requestIDKey contextKey = iota
	backendKey
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRequestID adds the request ID to the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetBackend returns the name of the catalog backend serving the request
func GetBackend(ctx context.Context) string {
	if name, ok := ctx.Value(backendKey).(string); ok {
		return name
	}
	return ""
}

// SetBackend records the catalog backend serving the request
func SetBackend(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, backendKey, name)
}

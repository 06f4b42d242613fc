package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
	webcontext "github.com/ManikGarg316/rest-catalog-server/internal/web/context"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/response"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	// EnableStackTrace determines whether to log stack traces
	EnableStackTrace bool
	// Logger receives the recovered panic
	Logger *zap.Logger
	// ResponseHandler writes the response; a 500 error model when nil
	ResponseHandler func(http.ResponseWriter, *http.Request, any)
}

// Recovery creates a middleware that turns panics into 500 responses
func Recovery(logger *zap.Logger) Middleware {
	return RecoveryWithConfig(RecoveryConfig{
		EnableStackTrace: true,
		Logger:           logger,
	})
}

// RecoveryWithConfig creates a recovery middleware with custom configuration
func RecoveryWithConfig(config RecoveryConfig) Middleware {
	logger := logging.OrNop(config.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// let net/http abort the connection
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := []zap.Field{
					zap.Error(panicError(rec)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", webcontext.GetRequestID(r.Context())),
				}
				if config.EnableStackTrace {
					fields = append(fields, zap.ByteString("stack", debug.Stack()))
				}
				logger.Error("Panic recovered", fields...)

				if config.ResponseHandler != nil {
					config.ResponseHandler(w, r, rec)
					return
				}
				response.RenderInternalError(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// panicError converts a recovered value to an error
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}

package router

import (
	"fmt"
	"net/http"

	"github.com/ManikGarg316/rest-catalog-server/internal/web/response"
)

// ErrorHandler renders router-level errors in the catalog error model
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// NotFoundHandler returns a handler for paths outside every backend
func (eh *ErrorHandler) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, fmt.Sprintf("no catalog is mounted at %s", r.URL.Path))
	}
}

// MethodNotAllowedHandler returns a handler for 405 Method Not Allowed errors
func (eh *ErrorHandler) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, response.TypeMethodNotAllowed,
			fmt.Errorf("method %s is not allowed for %s", r.Method, r.URL.Path))
	}
}

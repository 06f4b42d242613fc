package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorModel is the error body of the REST catalog protocol
type ErrorModel struct {
	Message string   `json:"message"`
	Type    string   `json:"type"`
	Code    int      `json:"code"`
	Stack   []string `json:"stack,omitempty"`
}

// ErrorResponse wraps ErrorModel the way clients expect it
type ErrorResponse struct {
	Error ErrorModel `json:"error"`
}

// Error types used by the REST catalog protocol
const (
	TypeBadRequest          = "BadRequestException"
	TypeNotFound            = "NotFoundException"
	TypeNoSuchNamespace     = "NoSuchNamespaceException"
	TypeNoSuchTable         = "NoSuchTableException"
	TypeAlreadyExists       = "AlreadyExistsException"
	TypeNamespaceNotEmpty   = "NamespaceNotEmptyException"
	TypeUnsupported         = "UnsupportedOperationException"
	TypeNotImplemented      = "NotImplementedException"
	TypeMethodNotAllowed    = "MethodNotAllowedException"
	TypeServiceFailure      = "ServiceFailureException"
	TypeServiceUnavailable  = "ServiceUnavailableException"
	TypeUnprocessableEntity = "UnprocessableEntityException"
)

// RenderJSON writes v as a JSON body with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// RenderNoContent writes a 204 with no body
func RenderNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RenderError renders an error in the catalog error model
func RenderError(w http.ResponseWriter, statusCode int, errType string, err error) {
	if errType == "" {
		errType = typeFromStatus(statusCode)
	}

	RenderJSON(w, statusCode, &ErrorResponse{
		Error: ErrorModel{
			Message: err.Error(),
			Type:    errType,
			Code:    statusCode,
		},
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, TypeBadRequest, fmt.Errorf("%s", message))
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, TypeNotFound, fmt.Errorf("%s", message))
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter, allowedMethods []string) {
	if len(allowedMethods) > 0 {
		w.Header().Set("Allow", joinMethods(allowedMethods))
	}
	RenderError(w, http.StatusMethodNotAllowed, TypeMethodNotAllowed, fmt.Errorf("method not allowed"))
}

// RenderInternalError renders a 500 without leaking the cause
func RenderInternalError(w http.ResponseWriter) {
	RenderError(w, http.StatusInternalServerError, TypeServiceFailure, fmt.Errorf("An unexpected error occurred"))
}

// typeFromStatus maps HTTP status codes to error types
func typeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusMethodNotAllowed:
		return TypeMethodNotAllowed
	case http.StatusNotAcceptable:
		return TypeUnsupported
	case http.StatusConflict:
		return TypeAlreadyExists
	case http.StatusUnprocessableEntity:
		return TypeUnprocessableEntity
	case http.StatusNotImplemented:
		return TypeNotImplemented
	case http.StatusServiceUnavailable:
		return TypeServiceUnavailable
	default:
		return TypeServiceFailure
	}
}

// joinMethods joins HTTP methods with comma
func joinMethods(methods []string) string {
	result := ""
	for i, method := range methods {
		if i > 0 {
			result += ", "
		}
		result += method
	}
	return result
}

// HTTPError is an error that already knows its status and error type
type HTTPError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Type:       typeFromStatus(statusCode),
		Message:    message,
	}
}

// WithType sets a custom error type
func (e *HTTPError) WithType(errType string) *HTTPError {
	e.Type = errType
	return e
}

// Render renders the HTTP error as a response
func (e *HTTPError) Render(w http.ResponseWriter) {
	RenderError(w, e.StatusCode, e.Type, e)
}

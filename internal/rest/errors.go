package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/response"
)

var (
	// ErrNotImplemented is returned for routed operations with no implementation
	ErrNotImplemented = errors.New("not implemented")

	// ErrBadRequest is returned for bodies and path variables that cannot be used
	ErrBadRequest = errors.New("bad request")
)

// ErrorStatus maps an error from a Handler to a status code and error type
func ErrorStatus(err error) (int, string) {
	var httpErr *response.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.StatusCode, httpErr.Type
	case errors.Is(err, catalog.ErrNoSuchNamespace):
		return http.StatusNotFound, response.TypeNoSuchNamespace
	case errors.Is(err, catalog.ErrNoSuchTable):
		return http.StatusNotFound, response.TypeNoSuchTable
	case errors.Is(err, catalog.ErrNamespaceNotEmpty):
		return http.StatusConflict, response.TypeNamespaceNotEmpty
	case errors.Is(err, catalog.ErrNamespaceAlreadyExists), errors.Is(err, catalog.ErrTableAlreadyExists):
		return http.StatusConflict, response.TypeAlreadyExists
	case errors.Is(err, catalog.ErrInvalidArgument), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, response.TypeBadRequest
	case errors.Is(err, catalog.ErrNotSupported):
		return http.StatusNotAcceptable, response.TypeUnsupported
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented, response.TypeNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, response.TypeServiceUnavailable
	default:
		return http.StatusInternalServerError, response.TypeServiceFailure
	}
}

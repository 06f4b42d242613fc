package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorModel {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	RenderError(w, http.StatusNotFound, TypeNoSuchTable, errors.New("table does not exist: db.t"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	model := decodeError(t, w)
	assert.Equal(t, "table does not exist: db.t", model.Message)
	assert.Equal(t, TypeNoSuchTable, model.Type)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestRenderErrorDefaultType(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusBadRequest, TypeBadRequest},
		{http.StatusNotFound, TypeNotFound},
		{http.StatusNotAcceptable, TypeUnsupported},
		{http.StatusConflict, TypeAlreadyExists},
		{http.StatusNotImplemented, TypeNotImplemented},
		{http.StatusServiceUnavailable, TypeServiceUnavailable},
		{http.StatusTeapot, TypeServiceFailure},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			RenderError(w, tt.status, "", errors.New("x"))
			assert.Equal(t, tt.wantType, decodeError(t, w).Type)
		})
	}
}

func TestRenderHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	RenderBadRequest(w, "bad json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad json", decodeError(t, w).Message)

	w = httptest.NewRecorder()
	RenderNotFound(w, "")
	assert.Equal(t, "Resource not found", decodeError(t, w).Message)

	w = httptest.NewRecorder()
	RenderMethodNotAllowed(w, []string{"GET", "HEAD"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))

	w = httptest.NewRecorder()
	RenderInternalError(w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeServiceFailure, decodeError(t, w).Type)

	w = httptest.NewRecorder()
	RenderNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestRenderJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RenderJSON(w, http.StatusOK, map[string]string{"a": "b"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":"b"}`, w.Body.String())
}

func TestHTTPError(t *testing.T) {
	err := NewHTTPError(http.StatusNotImplemented, "commit is not supported")
	assert.Equal(t, TypeNotImplemented, err.Type)
	assert.Equal(t, "commit is not supported", err.Error())

	err = NewHTTPError(http.StatusConflict, "busy").WithType(TypeNamespaceNotEmpty)

	w := httptest.NewRecorder()
	err.Render(w)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, TypeNamespaceNotEmpty, decodeError(t, w).Type)
}

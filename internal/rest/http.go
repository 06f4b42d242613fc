package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
	webcontext "github.com/ManikGarg316/rest-catalog-server/internal/web/context"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/response"
)

// MaxBodyBytes caps decoded request bodies
const MaxBodyBytes = 1 << 20

// NewHTTPHandler binds h to the route table. The returned handler expects
// paths relative to the backend prefix (start with /v1).
func NewHTTPHandler(h Handler, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)

	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, response.TypeMethodNotAllowed,
			fmt.Errorf("method %s is not allowed for %s", r.Method, r.URL.Path))
	})

	for _, spec := range Routes() {
		mux.Method(spec.Method, spec.Path, &routeHandler{
			route:   spec.Route,
			handler: h,
			logger:  logger,
		})
	}
	return mux
}

type routeHandler struct {
	route   Route
	handler Handler
	logger  *zap.Logger
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars, err := requestVars(r)
	if err != nil {
		rh.renderError(w, r, err)
		return
	}

	body, err := decodeBody(w, r, rh.route)
	if err != nil {
		rh.renderError(w, r, err)
		return
	}

	resp, err := rh.handler.HandleRequest(r.Context(), rh.route, vars, body)
	if err != nil {
		rh.renderError(w, r, err)
		return
	}

	if r.Method == http.MethodHead || resp.Kind() == KindNoContent {
		response.RenderNoContent(w)
		return
	}
	response.RenderJSON(w, http.StatusOK, resp)
}

func (rh *routeHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := ErrorStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		rh.logger.Error("Catalog request failed",
			zap.String("route", rh.route.String()),
			zap.String("request_id", webcontext.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
	response.RenderError(w, status, errType, err)
}

// requestVars collects path and query variables. chi leaves a parameter
// escaped when it routed on RawPath.
func requestVars(r *http.Request) (map[string]string, error) {
	vars := make(map[string]string, 3)
	for _, name := range []string{VarNamespace, VarTable} {
		raw := chi.URLParam(r, name)
		if raw == "" {
			continue
		}
		if r.URL.RawPath != "" {
			decoded, err := url.PathUnescape(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, name, raw)
			}
			raw = decoded
		}
		vars[name] = raw
	}

	query := r.URL.Query()
	for _, name := range []string{VarParent, VarPurge} {
		if v := query.Get(name); v != "" {
			vars[name] = v
		}
	}
	return vars, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, route Route) (any, error) {
	body := newRequestBody(route)
	if body == nil {
		return nil, nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: request body is required", ErrBadRequest)
		}
		return nil, fmt.Errorf("%w: malformed request body: %v", ErrBadRequest, err)
	}
	return body, nil
}

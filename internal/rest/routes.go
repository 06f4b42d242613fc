// Package rest serves a catalog.Catalog over the REST catalog protocol.
//
// Requests flow through a Handler: the HTTP binding decodes the route, path
// variables and body, the Handler returns one of the typed Response variants
// and the binding encodes it. Decorators (such as credential injection) wrap
// a Handler without touching HTTP.
package rest

import "net/http"

// Route identifies an operation of the protocol
type Route int

const (
	RouteConfig Route = iota + 1
	RouteListNamespaces
	RouteCreateNamespace
	RouteLoadNamespace
	RouteNamespaceExists
	RouteDropNamespace
	RouteUpdateNamespaceProperties
	RouteListTables
	RouteCreateTable
	RouteLoadTable
	RouteTableExists
	RouteDropTable
	RouteUpdateTable
	RouteRenameTable
)

// Path and query variable names passed to Handler.HandleRequest
const (
	VarNamespace = "namespace"
	VarTable     = "table"
	VarParent    = "parent"
	VarPurge     = "purgeRequested"
)

// NamespaceSeparator joins the levels of a multi-level namespace in paths
const NamespaceSeparator = "\x1f"

// RouteSpec binds a route to its method and path template
type RouteSpec struct {
	Route  Route
	Method string
	Path   string
}

var routeNames = map[Route]string{
	RouteConfig:                    "config",
	RouteListNamespaces:            "list-namespaces",
	RouteCreateNamespace:           "create-namespace",
	RouteLoadNamespace:             "load-namespace",
	RouteNamespaceExists:           "namespace-exists",
	RouteDropNamespace:             "drop-namespace",
	RouteUpdateNamespaceProperties: "update-namespace-properties",
	RouteListTables:                "list-tables",
	RouteCreateTable:               "create-table",
	RouteLoadTable:                 "load-table",
	RouteTableExists:               "table-exists",
	RouteDropTable:                 "drop-table",
	RouteUpdateTable:               "update-table",
	RouteRenameTable:               "rename-table",
}

// String returns the route name
func (r Route) String() string {
	if name, ok := routeNames[r]; ok {
		return name
	}
	return "unknown"
}

// Routes returns the route table in registration order
func Routes() []RouteSpec {
	return []RouteSpec{
		{RouteConfig, http.MethodGet, "/v1/config"},
		{RouteListNamespaces, http.MethodGet, "/v1/namespaces"},
		{RouteCreateNamespace, http.MethodPost, "/v1/namespaces"},
		{RouteLoadNamespace, http.MethodGet, "/v1/namespaces/{namespace}"},
		{RouteNamespaceExists, http.MethodHead, "/v1/namespaces/{namespace}"},
		{RouteDropNamespace, http.MethodDelete, "/v1/namespaces/{namespace}"},
		{RouteUpdateNamespaceProperties, http.MethodPost, "/v1/namespaces/{namespace}/properties"},
		{RouteListTables, http.MethodGet, "/v1/namespaces/{namespace}/tables"},
		{RouteCreateTable, http.MethodPost, "/v1/namespaces/{namespace}/tables"},
		{RouteLoadTable, http.MethodGet, "/v1/namespaces/{namespace}/tables/{table}"},
		{RouteTableExists, http.MethodHead, "/v1/namespaces/{namespace}/tables/{table}"},
		{RouteDropTable, http.MethodDelete, "/v1/namespaces/{namespace}/tables/{table}"},
		{RouteUpdateTable, http.MethodPost, "/v1/namespaces/{namespace}/tables/{table}"},
		{RouteRenameTable, http.MethodPost, "/v1/tables/rename"},
	}
}

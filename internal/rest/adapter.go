package rest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
)

// Handler serves one protocol operation. vars holds the decoded path and
// query variables; body is the decoded request (see newRequestBody) or nil.
type Handler interface {
	HandleRequest(ctx context.Context, route Route, vars map[string]string, body any) (Response, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, route Route, vars map[string]string, body any) (Response, error)

// HandleRequest calls f
func (f HandlerFunc) HandleRequest(ctx context.Context, route Route, vars map[string]string, body any) (Response, error) {
	return f(ctx, route, vars, body)
}

// CatalogAdapter implements the protocol on top of a catalog
type CatalogAdapter struct {
	catalog catalog.Catalog
}

// NewCatalogAdapter creates an adapter for cat
func NewCatalogAdapter(cat catalog.Catalog) *CatalogAdapter {
	return &CatalogAdapter{catalog: cat}
}

// ParseNamespace splits a namespace path variable into its levels
func ParseNamespace(raw string) (catalog.Identifier, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing namespace", ErrBadRequest)
	}
	return strings.Split(raw, NamespaceSeparator), nil
}

// FormatNamespace joins namespace levels for use in a path
func FormatNamespace(namespace catalog.Identifier) string {
	return strings.Join(namespace, NamespaceSeparator)
}

func bodyAs[T any](body any) (*T, error) {
	req, ok := body.(*T)
	if !ok || req == nil {
		var want *T
		return nil, fmt.Errorf("%w: expected %T request body, got %T", ErrBadRequest, want, body)
	}
	return req, nil
}

func tableVar(vars map[string]string) (catalog.Identifier, error) {
	ns, err := ParseNamespace(vars[VarNamespace])
	if err != nil {
		return nil, err
	}
	name := vars[VarTable]
	if name == "" {
		return nil, fmt.Errorf("%w: missing table", ErrBadRequest)
	}
	return catalog.TableIdent(ns, name), nil
}

// HandleRequest dispatches route to the catalog
func (a *CatalogAdapter) HandleRequest(ctx context.Context, route Route, vars map[string]string, body any) (Response, error) {
	switch route {
	case RouteConfig:
		return &ConfigResponse{
			Defaults:  map[string]string{},
			Overrides: map[string]string{},
		}, nil

	case RouteListNamespaces:
		return a.listNamespaces(ctx, vars)

	case RouteCreateNamespace:
		req, err := bodyAs[CreateNamespaceRequest](body)
		if err != nil {
			return nil, err
		}
		return a.createNamespace(ctx, req)

	case RouteLoadNamespace:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		props, err := a.catalog.LoadNamespaceProperties(ctx, ns)
		if err != nil {
			return nil, err
		}
		return &GetNamespaceResponse{Namespace: ns, Properties: props}, nil

	case RouteNamespaceExists:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		ok, err := a.catalog.NamespaceExists(ctx, ns)
		return existsResponse(ok, err, catalog.ErrNoSuchNamespace, ns)

	case RouteDropNamespace:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		if err := a.catalog.DropNamespace(ctx, ns); err != nil {
			return nil, err
		}
		return &NoContentResponse{}, nil

	case RouteUpdateNamespaceProperties:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		req, err := bodyAs[UpdateNamespacePropertiesRequest](body)
		if err != nil {
			return nil, err
		}
		summary, err := a.catalog.UpdateNamespaceProperties(ctx, ns, req.Removals, req.Updates)
		if err != nil {
			return nil, err
		}
		return &UpdateNamespacePropertiesResponse{
			Updated: summary.Updated,
			Removed: summary.Removed,
			Missing: summary.Missing,
		}, nil

	case RouteListTables:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		tables, err := a.catalog.ListTables(ctx, ns)
		if err != nil {
			return nil, err
		}
		resp := &ListTablesResponse{Identifiers: make([]TableIdentifier, 0, len(tables))}
		for _, ident := range tables {
			resp.Identifiers = append(resp.Identifiers, newTableIdentifier(ident))
		}
		return resp, nil

	case RouteCreateTable:
		ns, err := ParseNamespace(vars[VarNamespace])
		if err != nil {
			return nil, err
		}
		req, err := bodyAs[CreateTableRequest](body)
		if err != nil {
			return nil, err
		}
		return a.createTable(ctx, ns, req)

	case RouteLoadTable:
		ident, err := tableVar(vars)
		if err != nil {
			return nil, err
		}
		tbl, err := a.catalog.LoadTable(ctx, ident)
		if err != nil {
			return nil, err
		}
		return newLoadTableResponse(tbl), nil

	case RouteTableExists:
		ident, err := tableVar(vars)
		if err != nil {
			return nil, err
		}
		ok, err := a.catalog.TableExists(ctx, ident)
		return existsResponse(ok, err, catalog.ErrNoSuchTable, ident)

	case RouteDropTable:
		ident, err := tableVar(vars)
		if err != nil {
			return nil, err
		}
		purge := false
		if raw := vars[VarPurge]; raw != "" {
			if purge, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, VarPurge, raw)
			}
		}
		if err := a.catalog.DropTable(ctx, ident, purge); err != nil {
			return nil, err
		}
		return &NoContentResponse{}, nil

	case RouteUpdateTable:
		if _, err := bodyAs[CommitTableRequest](body); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: table commits", ErrNotImplemented)

	case RouteRenameTable:
		req, err := bodyAs[RenameTableRequest](body)
		if err != nil {
			return nil, err
		}
		if err := a.catalog.RenameTable(ctx, req.Source.Ident(), req.Destination.Ident()); err != nil {
			return nil, err
		}
		return &NoContentResponse{}, nil
	}

	return nil, fmt.Errorf("%w: route %d", ErrNotImplemented, route)
}

// existsResponse turns an existence check into a 204 or a not-found error
func existsResponse(ok bool, err error, notFound error, ident catalog.Identifier) (Response, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", notFound, strings.Join(ident, "."))
	}
	return &NoContentResponse{}, nil
}

func (a *CatalogAdapter) listNamespaces(ctx context.Context, vars map[string]string) (Response, error) {
	var parent catalog.Identifier
	if raw := vars[VarParent]; raw != "" {
		var err error
		if parent, err = ParseNamespace(raw); err != nil {
			return nil, err
		}
	}

	namespaces, err := a.catalog.ListNamespaces(ctx, parent)
	if err != nil {
		return nil, err
	}

	resp := &ListNamespacesResponse{Namespaces: make([][]string, 0, len(namespaces))}
	for _, ns := range namespaces {
		resp.Namespaces = append(resp.Namespaces, ns)
	}
	return resp, nil
}

func (a *CatalogAdapter) createNamespace(ctx context.Context, req *CreateNamespaceRequest) (Response, error) {
	props := catalog.CloneProperties(req.Properties)
	if err := a.catalog.CreateNamespace(ctx, req.Namespace, props); err != nil {
		return nil, err
	}
	return &CreateNamespaceResponse{Namespace: req.Namespace, Properties: props}, nil
}

func (a *CatalogAdapter) createTable(ctx context.Context, ns catalog.Identifier, req *CreateTableRequest) (Response, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrBadRequest)
	}
	if req.Schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrBadRequest)
	}
	if req.StageCreate {
		return nil, fmt.Errorf("%w: staged table creation", ErrNotImplemented)
	}

	tbl, err := a.catalog.CreateTable(ctx, catalog.TableIdent(ns, req.Name), req.Schema, catalog.CreateTableOptions{
		Location:      req.Location,
		Properties:    req.Properties,
		PartitionSpec: req.PartitionSpec,
		SortOrder:     req.WriteOrder,
	})
	if err != nil {
		return nil, err
	}
	return newLoadTableResponse(tbl), nil
}

// newLoadTableResponse always allocates a fresh Config map
func newLoadTableResponse(tbl *catalog.Table) *LoadTableResponse {
	return &LoadTableResponse{
		MetadataLocation: tbl.MetadataLocation,
		Metadata:         tbl.Metadata,
		Config:           map[string]string{},
	}
}

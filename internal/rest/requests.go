package rest

import (
	"encoding/json"

	"github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/table"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
)

// TableIdentifier is the wire form of a table identifier
type TableIdentifier struct {
	Namespace []string `json:"namespace"`
	Name      string   `json:"name"`
}

// Ident converts the wire form to a catalog identifier
func (t TableIdentifier) Ident() catalog.Identifier {
	return catalog.TableIdent(t.Namespace, t.Name)
}

func newTableIdentifier(ident catalog.Identifier) TableIdentifier {
	return TableIdentifier{
		Namespace: catalog.NamespaceOf(ident),
		Name:      catalog.TableNameOf(ident),
	}
}

// CreateNamespaceRequest is the body of RouteCreateNamespace
type CreateNamespaceRequest struct {
	Namespace  []string           `json:"namespace"`
	Properties iceberg.Properties `json:"properties,omitempty"`
}

// UpdateNamespacePropertiesRequest is the body of RouteUpdateNamespaceProperties
type UpdateNamespacePropertiesRequest struct {
	Removals []string           `json:"removals,omitempty"`
	Updates  iceberg.Properties `json:"updates,omitempty"`
}

// CreateTableRequest is the body of RouteCreateTable
type CreateTableRequest struct {
	Name          string                 `json:"name"`
	Location      string                 `json:"location,omitempty"`
	Schema        *iceberg.Schema        `json:"schema"`
	PartitionSpec *iceberg.PartitionSpec `json:"partition-spec,omitempty"`
	WriteOrder    *table.SortOrder       `json:"write-order,omitempty"`
	StageCreate   bool                   `json:"stage-create,omitempty"`
	Properties    iceberg.Properties     `json:"properties,omitempty"`
}

// CommitTableRequest is the body of RouteUpdateTable; it is decoded only to
// reject malformed requests before answering that commits are unsupported
type CommitTableRequest struct {
	Identifier   *TableIdentifier  `json:"identifier,omitempty"`
	Requirements []json.RawMessage `json:"requirements"`
	Updates      []json.RawMessage `json:"updates"`
}

// RenameTableRequest is the body of RouteRenameTable
type RenameTableRequest struct {
	Source      TableIdentifier `json:"source"`
	Destination TableIdentifier `json:"destination"`
}

// newRequestBody returns a pointer to decode the body of route into, or nil
// when the route takes no body
func newRequestBody(route Route) any {
	switch route {
	case RouteCreateNamespace:
		return &CreateNamespaceRequest{}
	case RouteUpdateNamespaceProperties:
		return &UpdateNamespacePropertiesRequest{}
	case RouteCreateTable:
		return &CreateTableRequest{}
	case RouteUpdateTable:
		return &CommitTableRequest{}
	case RouteRenameTable:
		return &RenameTableRequest{}
	default:
		return nil
	}
}

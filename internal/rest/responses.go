package rest

import (
	"encoding/json"
	"fmt"

	"github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/table"
)

// Kind tags a Response variant
type Kind string

const (
	KindConfig                    Kind = "config"
	KindListNamespaces            Kind = "list-namespaces"
	KindCreateNamespace           Kind = "create-namespace"
	KindGetNamespace              Kind = "get-namespace"
	KindUpdateNamespaceProperties Kind = "update-namespace-properties"
	KindListTables                Kind = "list-tables"
	KindLoadTable                 Kind = "load-table"
	KindNoContent                 Kind = "no-content"
)

// Response is one of the response variants of this package. The unexported
// method closes the set.
type Response interface {
	Kind() Kind
	response()
}

// ConfigResponse answers RouteConfig
type ConfigResponse struct {
	Defaults  map[string]string `json:"defaults"`
	Overrides map[string]string `json:"overrides"`
}

// ListNamespacesResponse answers RouteListNamespaces
type ListNamespacesResponse struct {
	Namespaces [][]string `json:"namespaces"`
}

// CreateNamespaceResponse answers RouteCreateNamespace
type CreateNamespaceResponse struct {
	Namespace  []string           `json:"namespace"`
	Properties iceberg.Properties `json:"properties"`
}

// GetNamespaceResponse answers RouteLoadNamespace
type GetNamespaceResponse struct {
	Namespace  []string           `json:"namespace"`
	Properties iceberg.Properties `json:"properties"`
}

// UpdateNamespacePropertiesResponse answers RouteUpdateNamespaceProperties
type UpdateNamespacePropertiesResponse struct {
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
	Missing []string `json:"missing,omitempty"`
}

// ListTablesResponse answers RouteListTables
type ListTablesResponse struct {
	Identifiers []TableIdentifier `json:"identifiers"`
}

// LoadTableResponse answers RouteLoadTable and RouteCreateTable.
// Config is allocated per response and owned by it.
type LoadTableResponse struct {
	MetadataLocation string            `json:"metadata-location,omitempty"`
	Metadata         table.Metadata    `json:"metadata"`
	Config           map[string]string `json:"config,omitempty"`
}

// UnmarshalJSON validates the embedded metadata with the table parser
func (r *LoadTableResponse) UnmarshalJSON(b []byte) error {
	var wire struct {
		MetadataLocation string            `json:"metadata-location"`
		Metadata         json.RawMessage   `json:"metadata"`
		Config           map[string]string `json:"config"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	r.MetadataLocation, r.Config, r.Metadata = wire.MetadataLocation, wire.Config, nil
	if len(wire.Metadata) == 0 || string(wire.Metadata) == "null" {
		return nil
	}
	metadata, err := table.ParseMetadataBytes(wire.Metadata)
	if err != nil {
		return fmt.Errorf("invalid table metadata: %w", err)
	}
	r.Metadata = metadata
	return nil
}

// NoContentResponse answers routes that return 204
type NoContentResponse struct{}

func (*ConfigResponse) Kind() Kind                    { return KindConfig }
func (*ListNamespacesResponse) Kind() Kind            { return KindListNamespaces }
func (*CreateNamespaceResponse) Kind() Kind           { return KindCreateNamespace }
func (*GetNamespaceResponse) Kind() Kind              { return KindGetNamespace }
func (*UpdateNamespacePropertiesResponse) Kind() Kind { return KindUpdateNamespaceProperties }
func (*ListTablesResponse) Kind() Kind                { return KindListTables }
func (*LoadTableResponse) Kind() Kind                 { return KindLoadTable }
func (*NoContentResponse) Kind() Kind                 { return KindNoContent }

func (*ConfigResponse) response()                    {}
func (*ListNamespacesResponse) response()            {}
func (*CreateNamespaceResponse) response()           {}
func (*GetNamespaceResponse) response()              {}
func (*UpdateNamespacePropertiesResponse) response() {}
func (*ListTablesResponse) response()                {}
func (*LoadTableResponse) response()                 {}
func (*NoContentResponse) response()                 {}

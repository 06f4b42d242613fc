// Package catalog defines the catalog handle served by each backend, the
// registry that constructs it from resolved properties and the immutable
// context that pairs the two.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/apache/iceberg-go"
	icecatalog "github.com/apache/iceberg-go/catalog"
	"github.com/apache/iceberg-go/table"
)

// Properties is a resolved catalog configuration
type Properties = iceberg.Properties

// Identifier names a namespace (all levels) or a table (levels + name)
type Identifier = table.Identifier

// PropertiesUpdateSummary reports the outcome of a namespace property update
type PropertiesUpdateSummary = icecatalog.PropertiesUpdateSummary

// Errors shared with iceberg-go so clients of either can match them
var (
	ErrNoSuchTable            = icecatalog.ErrNoSuchTable
	ErrNoSuchNamespace        = icecatalog.ErrNoSuchNamespace
	ErrNamespaceAlreadyExists = icecatalog.ErrNamespaceAlreadyExists
	ErrTableAlreadyExists     = icecatalog.ErrTableAlreadyExists
	ErrNamespaceNotEmpty      = icecatalog.ErrNamespaceNotEmpty
)

var (
	// ErrNotSupported is returned for operations an implementation cannot perform
	ErrNotSupported = errors.New("operation not supported")

	// ErrUnknownImpl is returned when no builder matches catalog-impl or type
	ErrUnknownImpl = errors.New("unknown catalog implementation")

	// ErrInvalidArgument is returned for malformed identifiers and requests
	ErrInvalidArgument = errors.New("invalid argument")
)

// CreateTableOptions carries the optional parts of a create table request
type CreateTableOptions struct {
	Location      string
	Properties    Properties
	PartitionSpec *iceberg.PartitionSpec
	SortOrder     *table.SortOrder
}

// Table is a loaded table
type Table struct {
	Identifier       Identifier
	MetadataLocation string
	Metadata         table.Metadata
}

// Catalog is implemented by every catalog backend
type Catalog interface {
	// Name returns the catalog name given at construction
	Name() string

	ListNamespaces(ctx context.Context, parent Identifier) ([]Identifier, error)
	CreateNamespace(ctx context.Context, namespace Identifier, props Properties) error
	LoadNamespaceProperties(ctx context.Context, namespace Identifier) (Properties, error)
	UpdateNamespaceProperties(ctx context.Context, namespace Identifier, removals []string, updates Properties) (PropertiesUpdateSummary, error)
	NamespaceExists(ctx context.Context, namespace Identifier) (bool, error)
	DropNamespace(ctx context.Context, namespace Identifier) error

	ListTables(ctx context.Context, namespace Identifier) ([]Identifier, error)
	CreateTable(ctx context.Context, ident Identifier, schema *iceberg.Schema, opts CreateTableOptions) (*Table, error)
	LoadTable(ctx context.Context, ident Identifier) (*Table, error)
	TableExists(ctx context.Context, ident Identifier) (bool, error)

	// DropTable removes the table; purge also deletes its files
	DropTable(ctx context.Context, ident Identifier, purge bool) error
	RenameTable(ctx context.Context, from, to Identifier) error

	// Close releases connections and buckets
	Close() error
}

// NamespaceOf returns the namespace part of a table identifier
func NamespaceOf(ident Identifier) Identifier {
	return icecatalog.NamespaceFromIdent(ident)
}

// TableNameOf returns the last level of a table identifier
func TableNameOf(ident Identifier) string {
	return icecatalog.TableNameFromIdent(ident)
}

// TableIdent joins a namespace and a table name
func TableIdent(namespace Identifier, name string) Identifier {
	ident := make(Identifier, 0, len(namespace)+1)
	ident = append(ident, namespace...)
	return append(ident, name)
}

// ValidateNamespace rejects empty namespaces and levels that are empty or
// contain a slash
func ValidateNamespace(namespace Identifier) error {
	if len(namespace) == 0 {
		return fmt.Errorf("%w: empty namespace", ErrInvalidArgument)
	}
	for _, level := range namespace {
		if err := validateLevel(level); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTableIdent requires a valid namespace and a table name
func ValidateTableIdent(ident Identifier) error {
	if len(ident) < 2 {
		return fmt.Errorf("%w: table identifier %q needs a namespace and a name", ErrInvalidArgument, strings.Join(ident, "."))
	}
	if err := ValidateNamespace(NamespaceOf(ident)); err != nil {
		return err
	}
	return validateLevel(TableNameOf(ident))
}

func validateLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return fmt.Errorf("%w: empty identifier level", ErrInvalidArgument)
	}
	if strings.ContainsAny(level, "/\\") {
		return fmt.Errorf("%w: identifier level %q contains a path separator", ErrInvalidArgument, level)
	}
	return nil
}

// UpdateProperties applies removals and updates to a copy of current.
// A key listed in both is rejected.
func UpdateProperties(current Properties, removals []string, updates Properties) (Properties, PropertiesUpdateSummary, error) {
	for _, key := range removals {
		if _, ok := updates[key]; ok {
			return nil, PropertiesUpdateSummary{}, fmt.Errorf("%w: property %q is both removed and updated", ErrInvalidArgument, key)
		}
	}

	next := make(Properties, len(current)+len(updates))
	for k, v := range current {
		next[k] = v
	}

	summary := PropertiesUpdateSummary{
		Removed: []string{},
		Updated: []string{},
		Missing: []string{},
	}
	for _, key := range removals {
		if _, ok := next[key]; !ok {
			summary.Missing = append(summary.Missing, key)
			continue
		}
		delete(next, key)
		summary.Removed = append(summary.Removed, key)
	}
	for k, v := range updates {
		next[k] = v
		summary.Updated = append(summary.Updated, k)
	}

	sort.Strings(summary.Removed)
	sort.Strings(summary.Updated)
	sort.Strings(summary.Missing)
	return next, summary, nil
}

// CloneProperties returns a copy of props that is never nil
func CloneProperties(props Properties) Properties {
	out := make(Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Package filesystem implements the path-based (Hadoop layout) catalog.
//
// Everything lives under the warehouse:
//
//	<ns1>/<ns2>/.namespace.json              namespace marker and properties
//	<ns...>/<table>/metadata/v<N>.metadata.json
//	<ns...>/<table>/metadata/version-hint.text
//
// Table locations are derived from their identifiers, so custom locations and
// renames are not supported.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/apache/iceberg-go"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
	"github.com/ManikGarg316/rest-catalog-server/internal/storage"
)

const (
	namespaceMarker = ".namespace.json"
	metadataDir     = "metadata"
	versionHint     = "version-hint.text"
)

// Catalog is a filesystem catalog
type Catalog struct {
	name   string
	store  *catalog.MetadataStore
	logger *zap.Logger

	// serializes writers; readers go straight to the warehouse
	mu sync.Mutex
}

// Register adds the filesystem catalog to a registry
func Register(r *catalog.Registry) {
	r.Register(Build, catalog.ImplHadoop, catalog.TypeHadoop, "filesystem")
}

// Build opens the warehouse named by props and returns a catalog over it
func Build(ctx context.Context, name string, props catalog.Properties, logger *zap.Logger) (catalog.Catalog, error) {
	store, err := catalog.OpenMetadataStore(ctx, props)
	if err != nil {
		return nil, err
	}
	return New(name, store, logger), nil
}

// New returns a catalog over an opened metadata store
func New(name string, store *catalog.MetadataStore, logger *zap.Logger) *Catalog {
	logger = logging.OrNop(logger)
	logger.Info("Filesystem catalog ready", zap.String("warehouse", store.Warehouse().Root()))

	return &Catalog{
		name:   name,
		store:  store,
		logger: logger,
	}
}

func (c *Catalog) Name() string {
	return c.name
}

func (c *Catalog) warehouse() *storage.Warehouse {
	return c.store.Warehouse()
}

func namespaceKey(namespace catalog.Identifier) string {
	return strings.Join(namespace, "/")
}

func markerKey(namespace catalog.Identifier) string {
	return namespaceKey(namespace) + "/" + namespaceMarker
}

func tableKey(ident catalog.Identifier) string {
	return strings.Join(ident, "/")
}

func hintKey(ident catalog.Identifier) string {
	return tableKey(ident) + "/" + metadataDir + "/" + versionHint
}

func metadataKey(ident catalog.Identifier, version int) string {
	return fmt.Sprintf("%s/%s/v%d.metadata.json", tableKey(ident), metadataDir, version)
}

func (c *Catalog) ListNamespaces(ctx context.Context, parent catalog.Identifier) ([]catalog.Identifier, error) {
	prefix := ""
	if len(parent) > 0 {
		if err := c.requireNamespace(ctx, parent); err != nil {
			return nil, err
		}
		prefix = namespaceKey(parent) + "/"
	}

	dirs, err := c.warehouse().ListDirs(ctx, prefix)
	if err != nil {
		return nil, err
	}

	namespaces := []catalog.Identifier{}
	for _, dir := range dirs {
		child := catalog.TableIdent(parent, dir)
		ok, err := c.warehouse().Exists(ctx, markerKey(child))
		if err != nil {
			return nil, err
		}
		if ok {
			namespaces = append(namespaces, child)
		}
	}
	return namespaces, nil
}

func (c *Catalog) CreateNamespace(ctx context.Context, namespace catalog.Identifier, props catalog.Properties) error {
	if err := catalog.ValidateNamespace(namespace); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", catalog.ErrNamespaceAlreadyExists, strings.Join(namespace, "."))
	}
	if len(namespace) > 1 {
		isTable, err := c.TableExists(ctx, namespace)
		if err != nil {
			return err
		}
		if isTable {
			return fmt.Errorf("%w: %s is a table", catalog.ErrTableAlreadyExists, strings.Join(namespace, "."))
		}
	}

	if err := c.writeNamespace(ctx, namespace, catalog.CloneProperties(props)); err != nil {
		return err
	}

	c.logger.Info("Created namespace", zap.Strings("namespace", namespace))
	return nil
}

func (c *Catalog) writeNamespace(ctx context.Context, namespace catalog.Identifier, props catalog.Properties) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to encode namespace properties: %w", err)
	}
	return c.warehouse().Write(ctx, markerKey(namespace), data, "application/json")
}

func (c *Catalog) LoadNamespaceProperties(ctx context.Context, namespace catalog.Identifier) (catalog.Properties, error) {
	if err := catalog.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	data, err := c.warehouse().Read(ctx, markerKey(namespace))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrNoSuchNamespace, strings.Join(namespace, "."))
		}
		return nil, err
	}

	props := catalog.Properties{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse namespace %s: %w", strings.Join(namespace, "."), err)
	}
	return props, nil
}

func (c *Catalog) UpdateNamespaceProperties(ctx context.Context, namespace catalog.Identifier, removals []string, updates catalog.Properties) (catalog.PropertiesUpdateSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.LoadNamespaceProperties(ctx, namespace)
	if err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}

	next, summary, err := catalog.UpdateProperties(current, removals, updates)
	if err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}
	if err := c.writeNamespace(ctx, namespace, next); err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}
	return summary, nil
}

func (c *Catalog) NamespaceExists(ctx context.Context, namespace catalog.Identifier) (bool, error) {
	if err := catalog.ValidateNamespace(namespace); err != nil {
		return false, err
	}
	return c.warehouse().Exists(ctx, markerKey(namespace))
}

func (c *Catalog) requireNamespace(ctx context.Context, namespace catalog.Identifier) error {
	exists, err := c.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchNamespace, strings.Join(namespace, "."))
	}
	return nil
}

func (c *Catalog) DropNamespace(ctx context.Context, namespace catalog.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireNamespace(ctx, namespace); err != nil {
		return err
	}

	children, err := c.warehouse().ListDirs(ctx, namespaceKey(namespace)+"/")
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: %s", catalog.ErrNamespaceNotEmpty, strings.Join(namespace, "."))
	}

	if err := c.warehouse().Delete(ctx, markerKey(namespace)); err != nil {
		return err
	}

	c.logger.Info("Dropped namespace", zap.Strings("namespace", namespace))
	return nil
}

func (c *Catalog) ListTables(ctx context.Context, namespace catalog.Identifier) ([]catalog.Identifier, error) {
	if err := c.requireNamespace(ctx, namespace); err != nil {
		return nil, err
	}

	dirs, err := c.warehouse().ListDirs(ctx, namespaceKey(namespace)+"/")
	if err != nil {
		return nil, err
	}

	tables := []catalog.Identifier{}
	for _, dir := range dirs {
		ident := catalog.TableIdent(namespace, dir)
		ok, err := c.warehouse().Exists(ctx, hintKey(ident))
		if err != nil {
			return nil, err
		}
		if ok {
			tables = append(tables, ident)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		return catalog.TableNameOf(tables[i]) < catalog.TableNameOf(tables[j])
	})
	return tables, nil
}

func (c *Catalog) CreateTable(ctx context.Context, ident catalog.Identifier, schema *iceberg.Schema, opts catalog.CreateTableOptions) (*catalog.Table, error) {
	if err := catalog.ValidateTableIdent(ident); err != nil {
		return nil, err
	}

	location := c.warehouse().Location(tableKey(ident))
	if opts.Location != "" && strings.TrimRight(opts.Location, "/") != location {
		return nil, fmt.Errorf("%w: filesystem catalog tables live at %s", catalog.ErrInvalidArgument, location)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireNamespace(ctx, catalog.NamespaceOf(ident)); err != nil {
		return nil, err
	}
	exists, err := c.TableExists(ctx, ident)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", catalog.ErrTableAlreadyExists, strings.Join(ident, "."))
	}
	isNamespace, err := c.NamespaceExists(ctx, ident)
	if err != nil {
		return nil, err
	}
	if isNamespace {
		return nil, fmt.Errorf("%w: %s is a namespace", catalog.ErrNamespaceAlreadyExists, strings.Join(ident, "."))
	}

	metadata, err := catalog.NewTableMetadata(schema, location, opts)
	if err != nil {
		return nil, err
	}

	metadataLocation := c.warehouse().Location(metadataKey(ident, 1))
	if err := c.store.Write(ctx, metadataLocation, metadata); err != nil {
		return nil, err
	}
	if err := c.warehouse().Write(ctx, hintKey(ident), []byte("1"), "text/plain"); err != nil {
		return nil, err
	}

	c.logger.Info("Created table",
		zap.Strings("table", ident),
		zap.String("metadata_location", metadataLocation),
	)

	return &catalog.Table{
		Identifier:       ident,
		MetadataLocation: metadataLocation,
		Metadata:         metadata,
	}, nil
}

func (c *Catalog) currentVersion(ctx context.Context, ident catalog.Identifier) (int, error) {
	data, err := c.warehouse().Read(ctx, hintKey(ident))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", catalog.ErrNoSuchTable, strings.Join(ident, "."))
		}
		return 0, err
	}

	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || version < 1 {
		return 0, fmt.Errorf("corrupt version hint for %s: %q", strings.Join(ident, "."), data)
	}
	return version, nil
}

func (c *Catalog) LoadTable(ctx context.Context, ident catalog.Identifier) (*catalog.Table, error) {
	if err := catalog.ValidateTableIdent(ident); err != nil {
		return nil, err
	}

	version, err := c.currentVersion(ctx, ident)
	if err != nil {
		return nil, err
	}

	metadataLocation := c.warehouse().Location(metadataKey(ident, version))
	metadata, err := c.store.Read(ctx, metadataLocation)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrNoSuchTable, strings.Join(ident, "."))
		}
		return nil, err
	}

	return &catalog.Table{
		Identifier:       ident,
		MetadataLocation: metadataLocation,
		Metadata:         metadata,
	}, nil
}

func (c *Catalog) TableExists(ctx context.Context, ident catalog.Identifier) (bool, error) {
	if err := catalog.ValidateTableIdent(ident); err != nil {
		return false, err
	}
	return c.warehouse().Exists(ctx, hintKey(ident))
}

func (c *Catalog) DropTable(ctx context.Context, ident catalog.Identifier, purge bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	version, err := c.currentVersion(ctx, ident)
	if err != nil {
		return err
	}

	prefix := tableKey(ident) + "/"
	if !purge {
		prefix += metadataDir + "/"
	}
	if err := c.warehouse().DeletePrefix(ctx, prefix); err != nil {
		return err
	}
	for v := 1; v <= version; v++ {
		c.store.Forget(ctx, c.warehouse().Location(metadataKey(ident, v)))
	}

	c.logger.Info("Dropped table", zap.Strings("table", ident), zap.Bool("purge", purge))
	return nil
}

func (c *Catalog) RenameTable(ctx context.Context, from, to catalog.Identifier) error {
	return fmt.Errorf("%w: filesystem catalog cannot rename tables", catalog.ErrNotSupported)
}

func (c *Catalog) Close() error {
	return c.store.Close()
}

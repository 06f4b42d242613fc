package jdbc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/iceberg-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
)

func tableRef(ident catalog.Identifier) (ns, name string, err error) {
	if err := catalog.ValidateTableIdent(ident); err != nil {
		return "", "", err
	}
	ns, err = encodeNamespace(catalog.NamespaceOf(ident))
	if err != nil {
		return "", "", err
	}
	return ns, catalog.TableNameOf(ident), nil
}

func (c *Catalog) ListTables(ctx context.Context, namespace catalog.Identifier) ([]catalog.Identifier, error) {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := c.requireNamespace(ctx, c.db, ns); err != nil {
		return nil, err
	}

	query := `
		SELECT table_name FROM iceberg_tables
		WHERE catalog_name = $1 AND table_namespace = $2
		ORDER BY table_name
	`
	rows, err := c.db.QueryContext(ctx, query, c.catalogName, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", ns, err)
	}
	defer rows.Close()

	tables := []catalog.Identifier{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, catalog.TableIdent(namespace, name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", ns, err)
	}
	return tables, nil
}

func (c *Catalog) metadataLocation(ctx context.Context, ns, name string) (string, error) {
	query := `
		SELECT metadata_location FROM iceberg_tables
		WHERE catalog_name = $1 AND table_namespace = $2 AND table_name = $3
	`
	var location sql.NullString
	err := c.db.QueryRowContext(ctx, query, c.catalogName, ns, name).Scan(&location)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, ns, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up table %s.%s: %w", ns, name, err)
	}
	if !location.Valid || location.String == "" {
		return "", fmt.Errorf("table %s.%s has no metadata location", ns, name)
	}
	return location.String, nil
}

func (c *Catalog) CreateTable(ctx context.Context, ident catalog.Identifier, schema *iceberg.Schema, opts catalog.CreateTableOptions) (*catalog.Table, error) {
	ns, name, err := tableRef(ident)
	if err != nil {
		return nil, err
	}

	location := strings.TrimRight(opts.Location, "/")
	if location == "" {
		location = c.store.Warehouse().Location(strings.Join(ident, "/"))
	}
	if _, err := c.store.Warehouse().Key(location); err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrInvalidArgument, err)
	}

	if err := c.requireNamespace(ctx, c.db, ns); err != nil {
		return nil, err
	}
	if exists, err := c.TableExists(ctx, ident); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, ns, name)
	}

	metadata, err := catalog.NewTableMetadata(schema, location, opts)
	if err != nil {
		return nil, err
	}

	metadataLocation := fmt.Sprintf("%s/metadata/%05d-%s.metadata.json", location, 0, uuid.NewString())
	if err := c.store.Write(ctx, metadataLocation, metadata); err != nil {
		return nil, err
	}

	insertSQL := `
		INSERT INTO iceberg_tables (catalog_name, table_namespace, table_name, metadata_location, previous_metadata_location)
		VALUES ($1, $2, $3, $4, NULL)
	`
	if _, err := c.db.ExecContext(ctx, insertSQL, c.catalogName, ns, name, metadataLocation); err != nil {
		c.removeOrphan(ctx, metadataLocation)
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, ns, name)
		}
		return nil, fmt.Errorf("failed to register table %s.%s: %w", ns, name, err)
	}

	c.logger.Info("Created table",
		zap.String("namespace", ns),
		zap.String("table", name),
		zap.String("metadata_location", metadataLocation),
	)

	return &catalog.Table{
		Identifier:       ident,
		MetadataLocation: metadataLocation,
		Metadata:         metadata,
	}, nil
}

// removeOrphan deletes a metadata file that never got registered
func (c *Catalog) removeOrphan(ctx context.Context, location string) {
	c.store.Forget(ctx, location)
	key, err := c.store.Warehouse().Key(location)
	if err != nil {
		return
	}
	if err := c.store.Warehouse().Delete(ctx, key); err != nil {
		c.logger.Warn("Failed to remove orphaned metadata", zap.String("location", location), zap.Error(err))
	}
}

func (c *Catalog) LoadTable(ctx context.Context, ident catalog.Identifier) (*catalog.Table, error) {
	ns, name, err := tableRef(ident)
	if err != nil {
		return nil, err
	}

	location, err := c.metadataLocation(ctx, ns, name)
	if err != nil {
		return nil, err
	}

	metadata, err := c.store.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s.%s: %w", ns, name, err)
	}

	return &catalog.Table{
		Identifier:       ident,
		MetadataLocation: location,
		Metadata:         metadata,
	}, nil
}

func (c *Catalog) TableExists(ctx context.Context, ident catalog.Identifier) (bool, error) {
	ns, name, err := tableRef(ident)
	if err != nil {
		return false, err
	}

	_, err = c.metadataLocation(ctx, ns, name)
	if errors.Is(err, catalog.ErrNoSuchTable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) DropTable(ctx context.Context, ident catalog.Identifier, purge bool) error {
	ns, name, err := tableRef(ident)
	if err != nil {
		return err
	}

	location, err := c.metadataLocation(ctx, ns, name)
	if err != nil {
		return err
	}

	var tableLocation string
	if purge {
		metadata, err := c.store.Read(ctx, location)
		if err != nil {
			return fmt.Errorf("failed to read table %s.%s before purge: %w", ns, name, err)
		}
		tableLocation = metadata.Location()
	}

	deleteSQL := `
		DELETE FROM iceberg_tables
		WHERE catalog_name = $1 AND table_namespace = $2 AND table_name = $3
	`
	res, err := c.db.ExecContext(ctx, deleteSQL, c.catalogName, ns, name)
	if err != nil {
		return fmt.Errorf("failed to drop table %s.%s: %w", ns, name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, ns, name)
	}
	c.store.Forget(ctx, location)

	if purge {
		key, err := c.store.Warehouse().Key(tableLocation)
		if err != nil {
			return fmt.Errorf("failed to purge table %s.%s: %w", ns, name, err)
		}
		if err := c.store.Warehouse().DeletePrefix(ctx, key+"/"); err != nil {
			return fmt.Errorf("failed to purge table %s.%s: %w", ns, name, err)
		}
	}

	c.logger.Info("Dropped table",
		zap.String("namespace", ns),
		zap.String("table", name),
		zap.Bool("purge", purge),
	)
	return nil
}

func (c *Catalog) RenameTable(ctx context.Context, from, to catalog.Identifier) error {
	fromNS, fromName, err := tableRef(from)
	if err != nil {
		return err
	}
	toNS, toName, err := tableRef(to)
	if err != nil {
		return err
	}

	if err := c.requireNamespace(ctx, c.db, toNS); err != nil {
		return err
	}
	if exists, err := c.TableExists(ctx, to); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, toNS, toName)
	}

	updateSQL := `
		UPDATE iceberg_tables
		SET table_namespace = $1, table_name = $2
		WHERE catalog_name = $3 AND table_namespace = $4 AND table_name = $5
	`
	res, err := c.db.ExecContext(ctx, updateSQL, toNS, toName, c.catalogName, fromNS, fromName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, toNS, toName)
		}
		return fmt.Errorf("failed to rename table %s.%s: %w", fromNS, fromName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rename table %s.%s: %w", fromNS, fromName, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, fromNS, fromName)
	}

	c.logger.Info("Renamed table",
		zap.String("from", fromNS+"."+fromName),
		zap.String("to", toNS+"."+toName),
	)
	return nil
}

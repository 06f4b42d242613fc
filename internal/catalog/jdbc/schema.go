package jdbc

import (
	"context"
	"fmt"
)

const createTablesSQL = `
	CREATE TABLE IF NOT EXISTS iceberg_tables (
		catalog_name VARCHAR(255) NOT NULL,
		table_namespace VARCHAR(255) NOT NULL,
		table_name VARCHAR(255) NOT NULL,
		metadata_location VARCHAR(1000),
		previous_metadata_location VARCHAR(1000),
		PRIMARY KEY (catalog_name, table_namespace, table_name)
	)
`

const createNamespacePropertiesSQL = `
	CREATE TABLE IF NOT EXISTS iceberg_namespace_properties (
		catalog_name VARCHAR(255) NOT NULL,
		namespace VARCHAR(255) NOT NULL,
		property_key VARCHAR(255) NOT NULL,
		property_value VARCHAR(1000),
		PRIMARY KEY (catalog_name, namespace, property_key)
	)
`

// InitTables creates the catalog tables if they do not exist
func (c *Catalog) InitTables(ctx context.Context) error {
	for _, stmt := range []string{createTablesSQL, createNamespacePropertiesSQL} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog tables: %w", err)
		}
	}
	return nil
}

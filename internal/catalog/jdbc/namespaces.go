package jdbc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
)

// existsProperty marks a namespace that has no other properties
const existsProperty = "exists"

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// encodeNamespace joins levels with dots, the way the JDBC catalog stores them
func encodeNamespace(namespace catalog.Identifier) (string, error) {
	if err := catalog.ValidateNamespace(namespace); err != nil {
		return "", err
	}
	for _, level := range namespace {
		if strings.Contains(level, ".") {
			return "", fmt.Errorf("%w: namespace level %q contains a dot", catalog.ErrInvalidArgument, level)
		}
	}
	return strings.Join(namespace, "."), nil
}

func (c *Catalog) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *Catalog) namespaceExists(ctx context.Context, q querier, ns string) (bool, error) {
	query := `
		SELECT 1 FROM iceberg_namespace_properties
		WHERE catalog_name = $1 AND namespace = $2
		LIMIT 1
	`
	var one int
	err := q.QueryRowContext(ctx, query, c.catalogName, ns).Scan(&one)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up namespace %s: %w", ns, err)
	}

	query = `
		SELECT 1 FROM iceberg_tables
		WHERE catalog_name = $1 AND table_namespace = $2
		LIMIT 1
	`
	err = q.QueryRowContext(ctx, query, c.catalogName, ns).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up namespace %s: %w", ns, err)
	}
	return true, nil
}

func (c *Catalog) requireNamespace(ctx context.Context, q querier, ns string) error {
	exists, err := c.namespaceExists(ctx, q, ns)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchNamespace, ns)
	}
	return nil
}

func (c *Catalog) allNamespaces(ctx context.Context, q querier) ([]string, error) {
	query := `
		SELECT namespace FROM iceberg_namespace_properties WHERE catalog_name = $1
		UNION
		SELECT table_namespace FROM iceberg_tables WHERE catalog_name = $1
	`
	rows, err := q.QueryContext(ctx, query, c.catalogName)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	defer rows.Close()

	var namespaces []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		namespaces = append(namespaces, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	return namespaces, nil
}

// childNamespaces returns the namespaces exactly one level below parent
func (c *Catalog) childNamespaces(ctx context.Context, q querier, parent catalog.Identifier) ([]catalog.Identifier, error) {
	all, err := c.allNamespaces(ctx, q)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	children := []catalog.Identifier{}
	for _, ns := range all {
		levels := strings.Split(ns, ".")
		if len(levels) <= len(parent) || !hasPrefix(levels, parent) {
			continue
		}
		child := catalog.TableIdent(parent, levels[len(parent)])
		key := strings.Join(child, ".")
		if seen[key] {
			continue
		}
		seen[key] = true
		children = append(children, child)
	}

	sort.Slice(children, func(i, j int) bool {
		return strings.Join(children[i], ".") < strings.Join(children[j], ".")
	})
	return children, nil
}

func hasPrefix(levels []string, prefix catalog.Identifier) bool {
	for i, level := range prefix {
		if levels[i] != level {
			return false
		}
	}
	return true
}

func (c *Catalog) ListNamespaces(ctx context.Context, parent catalog.Identifier) ([]catalog.Identifier, error) {
	if len(parent) > 0 {
		ns, err := encodeNamespace(parent)
		if err != nil {
			return nil, err
		}
		if err := c.requireNamespace(ctx, c.db, ns); err != nil {
			return nil, err
		}
	}
	return c.childNamespaces(ctx, c.db, parent)
}

const upsertPropertySQL = `
	INSERT INTO iceberg_namespace_properties (catalog_name, namespace, property_key, property_value)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (catalog_name, namespace, property_key)
	DO UPDATE SET property_value = excluded.property_value
`

func (c *Catalog) CreateNamespace(ctx context.Context, namespace catalog.Identifier, props catalog.Properties) error {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return err
	}
	if _, reserved := props[existsProperty]; reserved {
		return fmt.Errorf("%w: property %q is reserved", catalog.ErrInvalidArgument, existsProperty)
	}

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := c.namespaceExists(ctx, tx, ns)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", catalog.ErrNamespaceAlreadyExists, ns)
		}

		if _, err := tx.ExecContext(ctx, upsertPropertySQL, c.catalogName, ns, existsProperty, "true"); err != nil {
			return fmt.Errorf("failed to create namespace %s: %w", ns, err)
		}
		for key, value := range props {
			if _, err := tx.ExecContext(ctx, upsertPropertySQL, c.catalogName, ns, key, value); err != nil {
				return fmt.Errorf("failed to set property %s on %s: %w", key, ns, err)
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", catalog.ErrNamespaceAlreadyExists, ns)
		}
		return err
	}

	c.logger.Info("Created namespace", zap.String("namespace", ns))
	return nil
}

func (c *Catalog) loadProperties(ctx context.Context, q querier, ns string) (catalog.Properties, error) {
	query := `
		SELECT property_key, property_value FROM iceberg_namespace_properties
		WHERE catalog_name = $1 AND namespace = $2
	`
	rows, err := q.QueryContext(ctx, query, c.catalogName, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to load namespace %s: %w", ns, err)
	}
	defer rows.Close()

	props := catalog.Properties{}
	found := false
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		found = true
		if key != existsProperty {
			props[key] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load namespace %s: %w", ns, err)
	}

	if !found {
		if err := c.requireNamespace(ctx, q, ns); err != nil {
			return nil, err
		}
	}
	return props, nil
}

func (c *Catalog) LoadNamespaceProperties(ctx context.Context, namespace catalog.Identifier) (catalog.Properties, error) {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return nil, err
	}
	return c.loadProperties(ctx, c.db, ns)
}

func (c *Catalog) UpdateNamespaceProperties(ctx context.Context, namespace catalog.Identifier, removals []string, updates catalog.Properties) (catalog.PropertiesUpdateSummary, error) {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}
	if _, reserved := updates[existsProperty]; reserved {
		return catalog.PropertiesUpdateSummary{}, fmt.Errorf("%w: property %q is reserved", catalog.ErrInvalidArgument, existsProperty)
	}

	var summary catalog.PropertiesUpdateSummary
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := c.loadProperties(ctx, tx, ns)
		if err != nil {
			return err
		}

		_, summary, err = catalog.UpdateProperties(current, removals, updates)
		if err != nil {
			return err
		}

		deleteSQL := `
			DELETE FROM iceberg_namespace_properties
			WHERE catalog_name = $1 AND namespace = $2 AND property_key = $3
		`
		for _, key := range summary.Removed {
			if _, err := tx.ExecContext(ctx, deleteSQL, c.catalogName, ns, key); err != nil {
				return fmt.Errorf("failed to remove property %s from %s: %w", key, ns, err)
			}
		}
		for _, key := range summary.Updated {
			if _, err := tx.ExecContext(ctx, upsertPropertySQL, c.catalogName, ns, key, updates[key]); err != nil {
				return fmt.Errorf("failed to set property %s on %s: %w", key, ns, err)
			}
		}
		// keep the namespace alive when every property is removed
		if _, err := tx.ExecContext(ctx, upsertPropertySQL, c.catalogName, ns, existsProperty, "true"); err != nil {
			return fmt.Errorf("failed to update namespace %s: %w", ns, err)
		}
		return nil
	})
	if err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}
	return summary, nil
}

func (c *Catalog) NamespaceExists(ctx context.Context, namespace catalog.Identifier) (bool, error) {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return false, err
	}
	return c.namespaceExists(ctx, c.db, ns)
}

func (c *Catalog) DropNamespace(ctx context.Context, namespace catalog.Identifier) error {
	ns, err := encodeNamespace(namespace)
	if err != nil {
		return err
	}

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		if err := c.requireNamespace(ctx, tx, ns); err != nil {
			return err
		}

		var one int
		query := `
			SELECT 1 FROM iceberg_tables
			WHERE catalog_name = $1 AND table_namespace = $2
			LIMIT 1
		`
		err := tx.QueryRowContext(ctx, query, c.catalogName, ns).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: %s", catalog.ErrNamespaceNotEmpty, ns)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check tables in %s: %w", ns, err)
		}

		children, err := c.childNamespaces(ctx, tx, namespace)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return fmt.Errorf("%w: %s", catalog.ErrNamespaceNotEmpty, ns)
		}

		deleteSQL := `
			DELETE FROM iceberg_namespace_properties
			WHERE catalog_name = $1 AND namespace = $2
		`
		if _, err := tx.ExecContext(ctx, deleteSQL, c.catalogName, ns); err != nil {
			return fmt.Errorf("failed to drop namespace %s: %w", ns, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("Dropped namespace", zap.String("namespace", ns))
	return nil
}

// Package jdbc implements a catalog whose table pointers live in a SQL
// database. The schema matches the JDBC catalog tables. Rows are keyed by
// jdbc.catalog-name, which defaults to the backend name; an existing
// metastore is served by setting it to the name its rows were written with.
package jdbc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
)

// JDBC catalog property keys
const (
	KeyUser        = "jdbc.user"
	KeyPassword    = "jdbc.password"
	KeyInitTables  = "jdbc.init-catalog-tables"
	// KeyCatalogName is the catalog_name column value; the backend name when unset
	KeyCatalogName = "jdbc.catalog-name"
)

const (
	sqliteDriver   = "sqlite3"
	postgresDriver = "pgx"

	pingTimeout = 10 * time.Second
)

// Catalog is a SQL-backed catalog
type Catalog struct {
	name        string
	catalogName string
	db          *sql.DB
	store       *catalog.MetadataStore
	logger      *zap.Logger
}

// Register adds the JDBC catalog to a registry
func Register(r *catalog.Registry) {
	r.Register(Build, catalog.ImplJDBC, catalog.TypeJDBC, "sql")
}

// Build connects to the database named by uri, opens the warehouse and
// creates the catalog tables unless jdbc.init-catalog-tables is false
func Build(ctx context.Context, name string, props catalog.Properties, logger *zap.Logger) (catalog.Catalog, error) {
	driver, dsn, err := DataSource(props)
	if err != nil {
		return nil, err
	}

	initTables := true
	if raw, ok := props[KeyInitTables]; ok {
		initTables, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", catalog.ErrInvalidArgument, KeyInitTables, raw)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == sqliteDriver {
		// sqlite allows a single writer; in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	store, err := catalog.OpenMetadataStore(ctx, props)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	c := New(name, db, store, logger)
	if catalogName := strings.TrimSpace(props[KeyCatalogName]); catalogName != "" {
		c.catalogName = catalogName
	}
	if initTables {
		if err := c.InitTables(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// New returns a catalog over an open database and metadata store
func New(name string, db *sql.DB, store *catalog.MetadataStore, logger *zap.Logger) *Catalog {
	return &Catalog{
		name:        name,
		catalogName: name,
		db:          db,
		store:       store,
		logger:      logging.OrNop(logger),
	}
}

// DataSource maps the uri property to a database/sql driver and DSN.
// jdbc:sqlite:<dsn> uses go-sqlite3 and jdbc:postgresql://... uses pgx;
// jdbc.user and jdbc.password fill in PostgreSQL credentials.
func DataSource(props catalog.Properties) (driver, dsn string, err error) {
	uri := strings.TrimSpace(props[catalog.KeyURI])
	if uri == "" {
		return "", "", fmt.Errorf("%w: %s is required for a JDBC catalog", catalog.ErrInvalidArgument, catalog.KeyURI)
	}

	switch {
	case strings.HasPrefix(uri, "jdbc:sqlite:"):
		return sqliteDriver, strings.TrimPrefix(uri, "jdbc:sqlite:"), nil

	case strings.HasPrefix(uri, "jdbc:postgresql:"), strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		raw := strings.TrimPrefix(uri, "jdbc:")
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("%w: invalid %s: %v", catalog.ErrInvalidArgument, catalog.KeyURI, err)
		}
		u.Scheme = "postgres"
		if user := props[KeyUser]; user != "" {
			if password, ok := props[KeyPassword]; ok {
				u.User = url.UserPassword(user, password)
			} else {
				u.User = url.User(user)
			}
		}
		return postgresDriver, u.String(), nil
	}

	return "", "", fmt.Errorf("%w: unsupported %s %q", catalog.ErrInvalidArgument, catalog.KeyURI, redactURI(uri))
}

// redactURI keeps credentials embedded in a URI out of error messages
func redactURI(uri string) string {
	u, err := url.Parse(strings.TrimPrefix(uri, "jdbc:"))
	if err != nil || u.User == nil {
		return uri
	}
	return strings.Replace(uri, u.User.String()+"@", "***@", 1)
}

func (c *Catalog) Name() string {
	return c.name
}

// Close closes the database and the metadata store
func (c *Catalog) Close() error {
	return errors.Join(c.db.Close(), c.store.Close())
}

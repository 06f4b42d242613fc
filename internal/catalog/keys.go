package catalog

// Catalog property keys understood by the registry and the implementations
const (
	// KeyCatalogImpl selects the catalog implementation
	KeyCatalogImpl = "catalog-impl"
	// KeyType is the short catalog type, consulted when KeyCatalogImpl is empty
	KeyType = "type"
	// KeyWarehouse is the root location for table data and metadata
	KeyWarehouse = "warehouse"
	// KeyURI is the metastore connection URI (JDBC catalogs)
	KeyURI = "uri"

	// KeyCacheEnabled toggles the metadata file cache
	KeyCacheEnabled = "cache-enabled"
	// KeyCacheExpirationMs is the metadata cache TTL in milliseconds
	KeyCacheExpirationMs = "cache.expiration-interval-ms"
	// KeyCacheRedisURI points the metadata cache at a Redis server
	KeyCacheRedisURI = "cache.redis.uri"
)

// Implementation identifiers accepted in KeyCatalogImpl
const (
	// ImplHadoop is the on-disk, path-based catalog
	ImplHadoop = "org.apache.iceberg.hadoop.HadoopCatalog"
	// ImplJDBC is the SQL-backed catalog
	ImplJDBC = "org.apache.iceberg.jdbc.JdbcCatalog"

	// TypeHadoop is the short form of ImplHadoop
	TypeHadoop = "hadoop"
	// TypeJDBC is the short form of ImplJDBC
	TypeJDBC = "jdbc"
)

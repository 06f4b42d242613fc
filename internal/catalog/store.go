package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/apache/iceberg-go/table"

	"github.com/ManikGarg316/rest-catalog-server/internal/cache"
	"github.com/ManikGarg316/rest-catalog-server/internal/storage"
)

// MetadataStore reads and writes table metadata files in a warehouse.
// Metadata files are immutable once written, so reads are cached by location.
type MetadataStore struct {
	warehouse *storage.Warehouse
	cache     cache.Cache
}

// NewMetadataStore wraps a warehouse and a cache; a nil cache disables caching
func NewMetadataStore(warehouse *storage.Warehouse, c cache.Cache) *MetadataStore {
	if c == nil {
		c = cache.Nop{}
	}
	return &MetadataStore{
		warehouse: warehouse,
		cache:     c,
	}
}

// OpenMetadataStore opens the warehouse and cache named by props
func OpenMetadataStore(ctx context.Context, props Properties) (*MetadataStore, error) {
	location := props[KeyWarehouse]
	if location == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidArgument, KeyWarehouse)
	}

	c, err := openCache(ctx, props)
	if err != nil {
		return nil, err
	}

	warehouse, err := storage.Open(ctx, location)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return NewMetadataStore(warehouse, c), nil
}

// openCache follows the cache conventions of the catalog properties:
// an expiration of 0 disables the cache and -1 never expires entries
func openCache(ctx context.Context, props Properties) (cache.Cache, error) {
	config := cache.DefaultConfig()

	if raw, ok := props[KeyCacheEnabled]; ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidArgument, KeyCacheEnabled, raw)
		}
		if !enabled {
			return cache.Nop{}, nil
		}
	}

	if raw, ok := props[KeyCacheExpirationMs]; ok {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidArgument, KeyCacheExpirationMs, raw)
		}
		switch {
		case ms == 0:
			return cache.Nop{}, nil
		case ms < 0:
			config.DefaultTTL = -1
		default:
			config.DefaultTTL = time.Duration(ms) * time.Millisecond
		}
	}

	c, err := cache.Open(ctx, props[KeyCacheRedisURI], config)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}
	return c, nil
}

// Warehouse returns the underlying warehouse
func (s *MetadataStore) Warehouse() *storage.Warehouse {
	return s.warehouse
}

// Read loads the metadata file at location
func (s *MetadataStore) Read(ctx context.Context, location string) (table.Metadata, error) {
	data, err := s.cache.Get(ctx, location)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("metadata cache: %w", err)
		}

		key, err := s.warehouse.Key(location)
		if err != nil {
			return nil, err
		}
		data, err = s.warehouse.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		// a failed cache fill only costs a later re-read
		_ = s.cache.Set(ctx, location, data, 0)
	}

	metadata, err := ParseTableMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", location, err)
	}
	return metadata, nil
}

// Write stores metadata at location
func (s *MetadataStore) Write(ctx context.Context, location string, metadata table.Metadata) error {
	if metadata == nil {
		return fmt.Errorf("%w: metadata is required", ErrInvalidArgument)
	}
	key, err := s.warehouse.Key(location)
	if err != nil {
		return err
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata %s: %w", location, err)
	}
	if err := s.warehouse.Write(ctx, key, data, "application/json"); err != nil {
		return err
	}

	_ = s.cache.Set(ctx, location, data, 0)
	return nil
}

// Forget drops a cached metadata file
func (s *MetadataStore) Forget(ctx context.Context, location string) {
	_ = s.cache.Delete(ctx, location)
}

// Close releases the cache and the warehouse
func (s *MetadataStore) Close() error {
	return errors.Join(s.cache.Close(), s.warehouse.Close())
}

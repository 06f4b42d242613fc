package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Minute))

	value, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func TestMemoryCache_Miss(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_NoExpiry(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Nanosecond})
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), -1))

	time.Sleep(time.Millisecond)

	_, err := cache.Get(ctx, "key")
	assert.NoError(t, err)
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, cache.Delete(ctx, "key"))

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "old", []byte("1"), time.Millisecond))
	require.NoError(t, cache.Set(ctx, "new", []byte("2"), time.Hour))

	cache.evictExpired(time.Now().Add(time.Second))

	_, loaded := cache.data.Load(cache.config.Prefix + "old")
	assert.False(t, loaded)
	_, loaded = cache.data.Load(cache.config.Prefix + "new")
	assert.True(t, loaded)
}

func TestMemoryCache_CanceledContext(t *testing.T) {
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, cache.Set(ctx, "key", nil, 0), context.Canceled)
}

func TestOpenWithoutRedisUsesMemory(t *testing.T) {
	c, err := Open(context.Background(), "", DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))
	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete(ctx, "key"))
	assert.NoError(t, c.Close())
}

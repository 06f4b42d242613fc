package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCache(client, DefaultConfig()), mr
}

func TestNewRedisCacheFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := NewRedisCacheFromURL(context.Background(), "redis://"+mr.Addr()+"/0", DefaultConfig())
	require.NoError(t, err)
	defer cache.Close()
}

func TestNewRedisCacheFromURL_Invalid(t *testing.T) {
	_, err := NewRedisCacheFromURL(context.Background(), "http://not-redis", DefaultConfig())
	assert.Error(t, err)
}

func TestNewRedisCacheFromURL_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCacheFromURL(context.Background(), "redis://"+addr, DefaultConfig())
	assert.Error(t, err)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Minute))

	value, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	// keys are namespaced by the configured prefix
	assert.True(t, mr.Exists(DefaultConfig().Prefix+"key"))
}

func TestRedisCache_Miss(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Second))

	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	require.NoError(t, cache.Set(context.Background(), "key", []byte("value"), 0))
	assert.Equal(t, DefaultConfig().DefaultTTL, mr.TTL(DefaultConfig().Prefix+"key"))
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, cache.Delete(ctx, "key"))

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestOpenWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := Open(context.Background(), "redis://"+mr.Addr(), DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*RedisCache)
	assert.True(t, ok)
}

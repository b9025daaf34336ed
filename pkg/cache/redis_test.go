package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_String(t *testing.T) {
	key := CacheKey{Prefix: "metadata:names", ID: "base"}
	assert.Equal(t, "metadata:names:base", key.String())
}

func TestMetadataNamesCacheKey(t *testing.T) {
	key := MetadataNamesCacheKey("http://1c.local/warehouse")
	assert.Equal(t, "metadata:names:http://1c.local/warehouse", key)
}

func TestChatActiveCacheKey(t *testing.T) {
	key := ChatActiveCacheKey(123456)
	assert.Equal(t, "chat:active:123456", key)
}

func TestRelayedCommandCacheKey(t *testing.T) {
	assert.Equal(t, "relay:done:abc", RelayedCommandCacheKey("abc"))
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	r := &RedisCache{prefix: "voxcmd"}
	assert.Equal(t, "voxcmd:chat:active:1", r.key(ChatActiveCacheKey(1)))

	r = &RedisCache{}
	assert.Equal(t, "chat:active:1", r.key(ChatActiveCacheKey(1)))
}

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	c, err := NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute, "voxcmd-test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := MetadataNamesCacheKey("integration")

	names := []string{"Номенклатура", "Склады"}
	require.NoError(t, c.Set(ctx, key, names))

	exists, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	var got []string
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, names, got)

	require.NoError(t, c.Delete(ctx, key))
	err = c.Get(ctx, key, &got)
	assert.True(t, errors.Is(err, ErrMiss))
}

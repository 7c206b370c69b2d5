package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheRoundTrip(t *testing.T) {
	c := NewLocalCache(LocalConfig{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	assert.True(t, c.Exists(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, c.Exists(ctx, "k"))
}

func TestLocalCacheExpiration(t *testing.T) {
	c := NewLocalCache(LocalConfig{DefaultExpiration: 10 * time.Millisecond, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFactoryUnknownType(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}

func TestFactoryDefaultsToLocal(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*LocalCache)
	assert.True(t, ok)
}

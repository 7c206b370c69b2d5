package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache wraps go-cache for single-process deployments.
type LocalCache struct {
	store *gocache.Cache
}

func NewLocalCache(cfg LocalConfig) *LocalCache {
	exp := cfg.DefaultExpiration
	if exp <= 0 {
		exp = 10 * time.Minute
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 15 * time.Minute
	}
	return &LocalCache{store: gocache.New(exp, cleanup)}
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	c.store.Set(key, value, expiration)
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) bool {
	_, ok := c.store.Get(key)
	return ok
}

func (c *LocalCache) Close() error {
	c.store.Flush()
	return nil
}

package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache shared by the AI adapter and handlers.
// Values are opaque payloads (typically JSON) so local and redis backends
// behave identically.
type Cache interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with an expiration. Zero expiration means the
	// backend default.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) bool

	// Close releases backend resources.
	Close() error
}

// Config selects and configures the backend.
type Config struct {
	Type  string // "local" or "redis"
	Redis RedisConfig
	Local LocalConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LocalConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

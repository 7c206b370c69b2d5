package cache

import (
	"fmt"
	"strings"
)

// NewCache builds a cache backend from config.
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case "local", "":
		return NewLocalCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

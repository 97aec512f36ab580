// Package cache holds short-lived derived artifacts: satellite verdicts and
// grantor risk profiles. Claims, priority records, and transitions never pass
// through here; those live only in the durable store.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/landsafe/landsafe/internal/model"
)

// Cache is the byte-level contract shared by every backend
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a namespaced cache key from a logical scope and identifier.
// The version segment lets a deploy invalidate stale entries wholesale.
func Key(scope, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "landsafe:v1:" + scope + ":" + hex.EncodeToString(hash[:])
}

// New builds a cache from configuration. A disabled config yields a no-op
// cache so callers never branch on nil.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return NopCache{}, nil
	}
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "layered":
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL), nil
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// NopCache misses on every read and discards every write
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool)               { return nil, false }
func (NopCache) Set(string, []byte, time.Duration) error { return nil }
func (NopCache) Delete(string) error                     { return nil }
func (NopCache) Clear() error                            { return nil }

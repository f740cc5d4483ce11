// Package cache stores rendered diagrams keyed by the analysis that produced
// them.
//
// Rendering through Graphviz is the slowest step of a run, and the same
// manifest is typically rendered many times (once per drill-down). A
// [Cache] maps a key derived from the analysis fingerprint and render
// options (see [Keyer]) to the output bytes.
//
// Three backends are provided:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (--no-cache)
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Get returns (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Dir       string // FileCache directory
	RedisAddr string
	Prefix    string // RedisCache key prefix
}

// Open creates the cache named by cfg.Backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, cfg.RedisAddr, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, ErrUnknownBackend
}

// Package cache holds the fingerprint-keyed response store shared by every
// provider client.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"readiness-workers/internal/common/config"
)

// Store is a key/value table with explicit expiry. Get reports absent for both
// missing and expired entries. Put replaces any existing entry for the same
// fingerprint, so at most one live entry exists per key.
type Store interface {
	Get(ctx context.Context, fingerprint string) ([]byte, bool, error)
	Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error
	// Sweep deletes expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int64, error)
	Backend() string
}

// Backends carries the already-connected clients a Store may be built on.
type Backends struct {
	Postgres *sql.DB
	Redis    redis.Cmdable
	SQLite   *sql.DB
}

// New builds the store selected by cfg.Backend and makes sure its schema exists.
func New(ctx context.Context, cfg config.CacheConfig, b Backends) (Store, error) {
	switch cfg.Backend {
	case config.CacheBackendPostgres, "":
		if b.Postgres == nil {
			return nil, fmt.Errorf("cache backend postgres: no database handle")
		}
		s := NewPostgresStore(b.Postgres)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.CacheBackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("cache backend redis: no client")
		}
		return NewRedisStore(b.Redis, cfg.KeyPrefix), nil
	case config.CacheBackendSQLite:
		if b.SQLite == nil {
			return nil, fmt.Errorf("cache backend sqlite: no database handle")
		}
		s := NewSQLiteStore(b.SQLite)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

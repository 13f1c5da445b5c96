package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Expiry is kept in unix nanoseconds so sub-second TTLs behave.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS api_cache (
	fingerprint TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	expires_at  INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache (expires_at);`

// SQLiteStore backs the cache with a local modernc.org/sqlite file, used for
// development and CLI runs where no shared database is available.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create api_cache table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM api_cache WHERE fingerprint = ? AND expires_at > ?`,
		fingerprint, s.now().UnixNano(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read api_cache: %w", err)
	}
	return payload, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_cache (fingerprint, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE
		SET payload = excluded.payload, expires_at = excluded.expires_at, created_at = excluded.created_at`,
		fingerprint, payload, now.Add(ttl).UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("write api_cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweep api_cache: %w", err)
	}
	return res.RowsAffected()
}

// count is used by tests to assert there is one row per fingerprint.
func (s *SQLiteStore) count(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_cache WHERE fingerprint = ?`, fingerprint).Scan(&n)
	return n, err
}

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS api_cache (
	fingerprint TEXT PRIMARY KEY,
	payload     BYTEA NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache (expires_at);`

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Backend() string { return "postgres" }

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create api_cache table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM api_cache WHERE fingerprint = $1 AND expires_at > $2`,
		fingerprint, s.now().UTC(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read api_cache: %w", err)
	}
	return payload, true, nil
}

// Put upserts on the fingerprint primary key; a stale or live row for the same
// key is overwritten in the same statement.
func (s *PostgresStore) Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_cache (fingerprint, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (fingerprint) DO UPDATE
		SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, created_at = NOW()`,
		fingerprint, payload, s.now().UTC().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("write api_cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep api_cache: %w", err)
	}
	return res.RowsAffected()
}

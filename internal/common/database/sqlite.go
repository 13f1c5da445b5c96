package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"readiness-workers/internal/common/config"

	_ "modernc.org/sqlite"
)

// SQLiteClient is the local file database used by the sqlite cache backend.
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database file at cfg.Path with WAL
// journaling and a busy timeout so concurrent writers wait instead of failing.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	registerDBStats(db, "sqlite")

	return &SQLiteClient{DB: db}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

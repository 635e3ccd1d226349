package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"credit-risk-workers/internal/common/config"

	_ "modernc.org/sqlite"
)

type SQLiteClient struct {
	DB   *sql.DB
	Path string
}

// NewSQLite opens the database file, creating its directory when needed.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path not specified")
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	return &SQLiteClient{DB: db, Path: cfg.Path}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

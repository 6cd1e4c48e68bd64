package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds the embedded store location.
type SQLiteConfig struct {
	Path string `env:"LEVELSTAR_SQLITE_PATH" envDefault:"data/data.db"`
}

// NewSQLiteConfigFromEnv reads SQLite settings from the environment.
func NewSQLiteConfigFromEnv() (*SQLiteConfig, error) {
	var cfg SQLiteConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse sqlite env: %w", err)
	}
	return &cfg, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at cfg.Path.
//
// The pool is pinned to one connection: SQLite has a single writer, and the
// repository serializes loads and batch writes on it anyway.
func OpenSQLite(cfg *SQLiteConfig) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(cfg.Path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return sqlDB, nil
}

package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams are appended to every store path. Writes are serialized
// through a single connection, so a busy timeout covers other processes only.
const sqliteParams = "?_foreign_keys=on&_busy_timeout=5000"

// SQLiteClient manages the connection to a SQLite catalog store
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens the store file. With create set, the file and its
// parent directory are created when missing; otherwise a missing file is an error.
func NewSQLiteClient(ctx context.Context, path string, create bool) (*SQLiteClient, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite store path is required")
	}

	if create {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}

	db, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database handle
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

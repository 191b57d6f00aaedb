package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a sqlite database at the given path and ensures
// directories exist. When setup partially fails the handle is still returned
// alongside the error so the caller can keep serving and let data-dependent
// requests fail individually.
func Open(path string) (*sql.DB, error) {
	dirErr := os.MkdirAll(filepath.Dir(path), 0o755)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// reasonable defaults for sqlite with concurrent readers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if dirErr != nil {
		return db, fmt.Errorf("create db dir: %w", dirErr)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return db, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

func openSQLite(path string) (*sql.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return capAndPing(db)
}

// openPureSQLite uses the cgo-free modernc driver.
func openPureSQLite(path string) (*sql.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return capAndPing(db)
}

func ensureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}

func capAndPing(db *sql.DB) (*sql.DB, error) {
	// SQLite single-writer: cap pool
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

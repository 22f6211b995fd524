// db.go
//
// Database helpers for the wordmaster server.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys,
//     immediate write transactions) on either registered driver.
//   - Classifying the cgo driver's lock errors for the store's retry loop.
//
// Drivers:
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, default).
//   - "sqlite":  modernc.org/sqlite (pure Go, no C toolchain needed).

package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// openDB opens (and creates if missing) a SQLite database file.
//
//   - Ensures the parent directory exists for relative paths (e.g. ./data/app.db).
//   - Configures busy timeout and WAL journaling.
//   - Begins transactions IMMEDIATE so the stats transaction takes the write
//     lock up front.
func openDB(driver, path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	var dsn string
	switch driver {
	case "sqlite3":
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate"
	case "sqlite":
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	log.Info().Str("driver", driver).Str("path", path).Msg("database opened")
	return db, nil
}

// isMattnBusy reports SQLITE_BUSY / SQLITE_LOCKED from the cgo driver.
func isMattnBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

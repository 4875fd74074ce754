// Package store persists the reminder daemon's state in SQLite: the wall-clock
// wake registrations, the notification channel registry and the delivery
// history.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aquabalance/aquabalance/pkg/logger"

	_ "modernc.org/sqlite"
)

const timeFormat = "2006-01-02 15:04:05"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store wraps the daemon database.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string, l logger.Logger) (*Store, error) {
	l = logger.OrNop(l)
	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	// The in-memory database lives as long as its single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if path != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			l.Warning("could not enable WAL mode: %v", err)
		}
	}

	s := &Store{db: db, log: l}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package store provides SQLite-backed persistence for the planner:
// visitor availability segments, the prior-assignment snapshot consulted
// for the reassignment-stability term, and a durable distance-matrix cache.
// Grounded on internal/sqlite/store.go's connection setup (WAL pragmas,
// embedded schema, New(path)).
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite connection and guards it with a single RWMutex,
// matching the teacher's sqlite.Store — SQLite itself serialises writers,
// and the mutex keeps each method's statements from interleaving with
// another method's from this process. A sequence of calls (e.g. a cache Get
// followed by SetBatch) is not atomic as a whole.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a SQLite database at path, applying the same WAL
// pragmas the teacher uses, and runs the embedded schema. path may be
// ":memory:" for an ephemeral in-process database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("store: create directory: %w", err)
			}
		}
	}

	log.Printf("[STORE] opening database at %s", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

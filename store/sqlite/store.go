// Package sqlite implements store.Store on an embedded SQLite database.
// Suited to single-node deployments and integration tests that need
// durability without an external service.
//
// Usage:
//
//	db, err := sql.Open("sqlite3", "file:stint.db?_journal_mode=WAL&_busy_timeout=5000")
//	s := sqlitestore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/content"
)

// Ensure Store implements all subsystem interfaces at compile time.
var (
	_ actor.Store   = (*Store)(nil)
	_ alarm.Store   = (*Store)(nil)
	_ content.Store = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store implements the composite store.Store interface on SQLite.
// The caller owns the *sql.DB lifecycle; Store never closes it.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new SQLite-backed store.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: stint/sqlite: %v", stint.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op because the caller owns the *sql.DB lifecycle.
func (s *Store) Close() error { return nil }

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isDuplicateKey checks if a SQLite error is a unique constraint violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

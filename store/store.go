// Package store defines the aggregate persistence interface. Each
// subsystem (actor, alarm, content) defines its own store interface; the
// composite Store composes them all, and a single backend (Bun/Postgres,
// SQLite, Redis, or Memory) implements every one.
package store

import (
	"context"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/content"
)

// Store is the aggregate persistence interface.
type Store interface {
	actor.Store
	alarm.Store
	content.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

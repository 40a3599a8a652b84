// Package store defines the aggregate persistence interface — the
// entitlement store gateway. Each subsystem (feature, token, grant,
// decisionlog) defines its own store interface; the composite Store
// composes them all. Backends: Postgres, SQLite, Mongo, and Memory.
package store

import (
	"context"
	"errors"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/token"
)

// ErrNotFound is wrapped by every backend when an entity does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is wrapped by every backend when a create would violate a
// uniqueness constraint (feature name, group name or app name, token name).
var ErrDuplicate = errors.New("store: duplicate")

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, mongo, memory) implements all subsystem stores.
type Store interface {
	feature.Store
	token.Store
	grant.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

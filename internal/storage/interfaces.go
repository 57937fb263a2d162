// Package storage defines the entity store contract consumed by the
// timeline engine.
//
// The engine is read-only with respect to the store: it looks records up by
// ID, follows explicit relationship edges, and runs predicate queries. Any
// backend that can answer those three operations can serve as the system of
// record; this package also ships in-memory, SQLite, and PostgreSQL
// reference implementations.
package storage

import (
	"context"

	"github.com/evercore/timeline/pkg/types"
)

// EntityStore is the read contract over the external record store.
// All operations are workspace-scoped; tenant isolation is the store's
// responsibility and is not re-validated by callers.
type EntityStore interface {
	// FindByID retrieves a single record by ID.
	// Returns ErrNotFound if no record with that ID exists in the workspace.
	FindByID(ctx context.Context, workspaceID, id string) (*types.Record, error)

	// FindRelated returns the records connected to id via an explicit
	// relationship graph edge, in a stable store-defined order.
	// Returns an empty slice (not an error) when the record has no edges.
	FindRelated(ctx context.Context, workspaceID, id string) ([]*types.Record, error)

	// Find runs a predicate query and returns the matching records.
	// The predicate language supports nested-field equality, containment
	// within sequence fields, and logical OR of sub-predicates; see Query.
	Find(ctx context.Context, query Query) ([]*types.Record, error)

	// Close releases any resources held by the store.
	Close() error
}

// Writer is implemented by reference stores that also accept writes.
// The timeline engine never writes; this interface exists for seeding and
// for tests that need to populate a store.
type Writer interface {
	// Put creates or replaces a record (upsert semantics).
	Put(ctx context.Context, record *types.Record) error

	// Link creates a bidirectional relationship edge between two records.
	Link(ctx context.Context, workspaceID, fromID, toID string) error
}

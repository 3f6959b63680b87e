// Package docstore defines the document store port used by the account domain.
// A store holds JSON documents keyed within named collections and supports a
// single field-equality scan plus an atomic multi-key delete. Concrete
// adapters live in the postgres and redis subpackages.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist. Adapters must map
// their driver-specific miss conditions onto it.
var ErrNotFound = errors.New("document not found")

// Key addresses a single document inside a collection.
type Key struct {
	Collection string
	ID         string
}

// Store is the document store contract. A single-key Set or Delete is atomic;
// nothing may be assumed about atomicity across keys except for BatchDelete,
// which deletes all given keys or none.
type Store interface {
	// Get unmarshals the document at collection/id into out.
	// Returns ErrNotFound if the document does not exist.
	Get(ctx context.Context, collection, id string, out any) error
	// Set writes the document at collection/id, replacing any existing one.
	Set(ctx context.Context, collection, id string, doc any) error
	// Delete removes the document at collection/id. Deleting a missing
	// document is a no-op, not an error.
	Delete(ctx context.Context, collection, id string) error
	// BatchDelete atomically removes all given keys.
	BatchDelete(ctx context.Context, keys []Key) error
	// FindByField scans a collection for the first document whose top-level
	// string field equals value and unmarshals it into out. Callers must not
	// assume any ordering beyond "some match if at least one exists".
	// Returns ErrNotFound when no document matches.
	FindByField(ctx context.Context, collection, field, value string, out any) error
}

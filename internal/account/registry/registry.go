// Package registry maintains the username uniqueness registry: a mapping from
// lowercase username to uid persisted in its own docstore namespace. It is the
// derived index over profiles; the profile document stays authoritative when
// the two disagree.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"accountd/internal/docstore"
)

// Collection is the docstore namespace holding username mappings.
const Collection = "usernames"

type entry struct {
	UID string `json:"uid"`
}

// Registry enforces case-insensitive global username uniqueness.
// It holds no process-local state and is safe for concurrent use by multiple
// engine instances.
type Registry struct {
	store docstore.Store
}

// New creates a Registry over the shared document store.
func New(store docstore.Store) *Registry {
	return &Registry{store: store}
}

// Normalize lowercases and trims a username. All registry operations apply it;
// callers normalize once more at the boundary so conflict checks and
// reservations always agree on the key.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsTaken reports whether the username has a registered owner. No side effect.
func (r *Registry) IsTaken(ctx context.Context, username string) (bool, error) {
	_, err := r.LookupUID(ctx, username)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Reserve writes the username→uid mapping unconditionally. Last writer wins:
// concurrent reservations of the same username resolve to exactly one uid,
// and the loser's profile disagrees with the registry until a later operation
// heals it.
func (r *Registry) Reserve(ctx context.Context, username, uid string) error {
	key := Normalize(username)
	if err := r.store.Set(ctx, Collection, key, entry{UID: uid}); err != nil {
		return fmt.Errorf("reserve username %q: %w", key, err)
	}
	return nil
}

// Release deletes the mapping. Releasing an unregistered username is a no-op.
func (r *Registry) Release(ctx context.Context, username string) error {
	key := Normalize(username)
	if err := r.store.Delete(ctx, Collection, key); err != nil {
		return fmt.Errorf("release username %q: %w", key, err)
	}
	return nil
}

// LookupUID returns the uid owning the username, or docstore.ErrNotFound.
func (r *Registry) LookupUID(ctx context.Context, username string) (string, error) {
	var e entry
	if err := r.store.Get(ctx, Collection, Normalize(username), &e); err != nil {
		return "", err
	}
	return e.UID, nil
}

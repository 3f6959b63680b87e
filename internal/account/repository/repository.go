// Package repository provides CRUD over uid-keyed profile documents in the
// shared docstore and owns profile construction defaults.
package repository

import (
	"context"
	"fmt"

	"accountd/internal/account/domain"
	"accountd/internal/docstore"
)

// Collection is the docstore namespace holding profile documents.
const Collection = "profiles"

// Repository persists domain.Profile documents keyed by uid.
// It holds no process-local state and is safe for concurrent use.
type Repository struct {
	store docstore.Store
}

// New creates a Repository over the shared document store.
func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get returns the profile for the uid, or docstore.ErrNotFound.
func (r *Repository) Get(ctx context.Context, uid string) (domain.Profile, error) {
	var profile domain.Profile
	if err := r.store.Get(ctx, Collection, uid, &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Put writes the profile as a full overwrite, not a merge. Callers must
// read-modify-write explicitly.
func (r *Repository) Put(ctx context.Context, uid string, profile domain.Profile) error {
	if err := r.store.Set(ctx, Collection, uid, profile); err != nil {
		return fmt.Errorf("put profile %s: %w", uid, err)
	}
	return nil
}

// Delete removes the profile document. Idempotent.
func (r *Repository) Delete(ctx context.Context, uid string) error {
	if err := r.store.Delete(ctx, Collection, uid); err != nil {
		return fmt.Errorf("delete profile %s: %w", uid, err)
	}
	return nil
}

// FindByEmail returns the first profile with the given email, or
// docstore.ErrNotFound. No ordering is guaranteed beyond "some match if at
// least one exists".
func (r *Repository) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	var profile domain.Profile
	if err := r.store.FindByField(ctx, Collection, "email", email, &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// MakeDefault constructs a new profile with default values. Pure construction,
// no I/O.
func MakeDefault(uid, username string, email *string, displayName string) domain.Profile {
	return domain.Profile{
		UID:         uid,
		Username:    username,
		Email:       email,
		DisplayName: displayName,
	}
}

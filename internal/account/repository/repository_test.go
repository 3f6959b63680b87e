package repository

import (
	"context"
	"errors"
	"testing"

	"accountd/internal/docstore"
	"accountd/internal/docstore/memory"
)

func TestPutGetRoundTrip(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	email := "a@x.com"
	want := MakeDefault("u1", "bob", &email, "Bob B")
	if err := repo.Put(ctx, "u1", want); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.UID != "u1" || got.Username != "bob" || got.DisplayName != "Bob B" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if got.Email == nil || *got.Email != email {
		t.Fatalf("expected email %q, got %v", email, got.Email)
	}
}

func TestPutIsFullOverwrite(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	email := "a@x.com"
	if err := repo.Put(ctx, "u1", MakeDefault("u1", "bob", &email, "Bob")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	// Overwrite with a nil email: the old value must not survive a merge.
	if err := repo.Put(ctx, "u1", MakeDefault("u1", "bob", nil, "Bob")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Email != nil {
		t.Fatalf("expected nil email after overwrite, got %v", *got.Email)
	}
}

func TestGetMissingProfile(t *testing.T) {
	repo := New(memory.New())

	if _, err := repo.Get(context.Background(), "ghost"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByEmail(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	emailA := "a@x.com"
	emailB := "b@x.com"
	if err := repo.Put(ctx, "u1", MakeDefault("u1", "alice", &emailA, "A")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := repo.Put(ctx, "u2", MakeDefault("u2", "bob", &emailB, "B")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := repo.FindByEmail(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.UID != "u2" {
		t.Fatalf("expected u2, got %q", got.UID)
	}

	if _, err := repo.FindByEmail(ctx, "c@x.com"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	if err := repo.Delete(ctx, "ghost"); err != nil {
		t.Fatalf("deleting a missing profile should be a no-op, got %v", err)
	}

	email := "a@x.com"
	if err := repo.Put(ctx, "u1", MakeDefault("u1", "bob", &email, "Bob")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "u1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}
}

package redis

import (
	"context"
	"errors"
	"testing"

	"accountd/internal/docstore"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type testDoc struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb)
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testDoc{UID: "u1", Email: "a@x.com"}
	if err := store.Set(ctx, "profiles", "u1", want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got testDoc
	if err := store.Get(ctx, "profiles", "u1", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	var got testDoc
	err := store.Get(context.Background(), "profiles", "nope", &got)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	store := newTestStore(t)

	if err := store.Delete(context.Background(), "usernames", "ghost"); err != nil {
		t.Fatalf("delete of missing key should be a no-op, got %v", err)
	}
}

func TestCollectionsDoNotCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "profiles", "alice", testDoc{UID: "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got testDoc
	err := store.Get(ctx, "usernames", "alice", &got)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across collections, got %v", err)
	}
}

func TestBatchDeleteRemovesAllKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "profiles", "u1", testDoc{UID: "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "usernames", "bob", map[string]string{"uid": "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	err := store.BatchDelete(ctx, []docstore.Key{
		{Collection: "usernames", ID: "bob"},
		{Collection: "profiles", ID: "u1"},
	})
	if err != nil {
		t.Fatalf("batch delete failed: %v", err)
	}

	var got testDoc
	if err := store.Get(ctx, "profiles", "u1", &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}
	if err := store.Get(ctx, "usernames", "bob", &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected username mapping gone, got %v", err)
	}
}

func TestFindByFieldMatchesSingleDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "profiles", "u1", testDoc{UID: "u1", Email: "a@x.com"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "profiles", "u2", testDoc{UID: "u2", Email: "b@x.com"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got testDoc
	if err := store.FindByField(ctx, "profiles", "email", "b@x.com", &got); err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.UID != "u2" {
		t.Fatalf("expected uid u2, got %q", got.UID)
	}

	err := store.FindByField(ctx, "profiles", "email", "c@x.com", &got)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unmatched email, got %v", err)
	}
}

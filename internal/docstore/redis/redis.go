// Package redis implements the docstore port on plain Redis string keys.
// Documents are stored as JSON under "collection:id" keys; the field-equality
// scan walks the collection with SCAN, so it stays O(collection size) and is
// meant for low-cardinality lookups only.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accountd/internal/docstore"

	goredis "github.com/redis/go-redis/v9"
)

// Store is a docstore.Store backed by a Redis client.
type Store struct {
	rdb *goredis.Client
}

// New creates a Store from the shared Redis client.
func New(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	raw, err := s.rdb.Get(ctx, docKey(collection, id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	if err := s.rdb.Set(ctx, docKey(collection, id), raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.rdb.Del(ctx, docKey(collection, id)).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// BatchDelete removes all keys inside a MULTI/EXEC transaction.
func (s *Store) BatchDelete(ctx context.Context, keys []docstore.Key) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, docKey(key.Collection, key.ID))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch delete: %w", err)
	}
	return nil
}

func (s *Store) FindByField(ctx context.Context, collection, field, value string, out any) error {
	var cursor uint64
	pattern := collection + ":*"

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("find %s by %s: %w", collection, field, err)
		}

		for _, key := range keys {
			raw, err := s.rdb.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				continue // deleted between SCAN and GET
			}
			if err != nil {
				return fmt.Errorf("find %s by %s: %w", collection, field, err)
			}

			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				continue
			}
			if got, ok := fields[field].(string); ok && got == value {
				return json.Unmarshal(raw, out)
			}
		}

		cursor = next
		if cursor == 0 {
			return docstore.ErrNotFound
		}
	}
}

func docKey(collection, id string) string {
	return collection + ":" + id
}

// Compile-time check that Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

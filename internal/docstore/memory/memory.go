// Package memory provides an in-memory docstore.Store used by tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"accountd/internal/docstore"
)

// Store is a mutex-guarded in-memory document store. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[docstore.Key][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[docstore.Key][]byte)}
}

func (s *Store) Get(_ context.Context, collection, id string, out any) error {
	s.mu.RLock()
	raw, ok := s.docs[docstore.Key{Collection: collection, ID: id}]
	s.mu.RUnlock()
	if !ok {
		return docstore.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *Store) Set(_ context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[docstore.Key{Collection: collection, ID: id}] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.docs, docstore.Key{Collection: collection, ID: id})
	s.mu.Unlock()
	return nil
}

func (s *Store) BatchDelete(_ context.Context, keys []docstore.Key) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.docs, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) FindByField(_ context.Context, collection, field, value string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, raw := range s.docs {
		if key.Collection != collection {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		if got, ok := fields[field].(string); ok && got == value {
			return json.Unmarshal(raw, out)
		}
	}
	return docstore.ErrNotFound
}

// Len reports the number of stored documents across all collections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Compile-time check that Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

// Package postgres implements the docstore port on a single JSONB table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accountd/internal/docstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getQuery         = `SELECT doc FROM documents WHERE collection = $1 AND id = $2`
	setQuery         = `INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3) ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
	deleteQuery      = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	findByFieldQuery = `SELECT doc FROM documents WHERE collection = $1 AND doc->>$2 = $3 LIMIT 1`
)

// Store is a docstore.Store backed by a Postgres documents table.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store from the shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx, getQuery, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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
	if _, err := s.pool.Exec(ctx, setQuery, collection, id, raw); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.pool.Exec(ctx, deleteQuery, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) BatchDelete(ctx context.Context, keys []docstore.Key) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("batch delete begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, key := range keys {
		if _, err = tx.Exec(ctx, deleteQuery, key.Collection, key.ID); err != nil {
			return fmt.Errorf("batch delete %s/%s: %w", key.Collection, key.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("batch delete commit: %w", err)
	}
	return nil
}

func (s *Store) FindByField(ctx context.Context, collection, field, value string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx, findByFieldQuery, collection, field, value).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s by %s: %w", collection, field, err)
	}
	return json.Unmarshal(raw, out)
}

// Compile-time check that Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/vectormath"
)

// vectorBackend implements driven.VectorBackend.
// Similarity is computed in process over the collection's rows.
type vectorBackend struct {
	store *Store
}

var _ driven.VectorBackend = (*vectorBackend)(nil)

// GetOrCreateCollection returns the named collection, creating it if needed.
func (b *vectorBackend) GetOrCreateCollection(ctx context.Context, name string) (driven.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	_, err := b.store.db.ExecContext(ctx, `
		INSERT INTO collections (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &collection{store: b.store, name: name}, nil
}

// DeleteCollection removes a collection and its entries.
func (b *vectorBackend) DeleteCollection(ctx context.Context, name string) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_entries WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return tx.Commit()
}

// Close is a no-op; the owning Store holds the connection.
func (b *vectorBackend) Close() error {
	return nil
}

// collection implements driven.VectorCollection.
type collection struct {
	store *Store
	name  string
}

var _ driven.VectorCollection = (*collection)(nil)

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Count returns the number of stored entries.
func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Add stores entries in one transaction. A duplicate id rejects the batch.
func (c *collection) Add(ctx context.Context, entries []domain.IndexEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: entry %s repeated in batch", domain.ErrAlreadyExists, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM index_entries WHERE collection = ?`, c.name).Scan(&next)
	if err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (collection, id, seq, document, page_num, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		exists, err := entryExists(ctx, tx, c.name, e.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: entry %s", domain.ErrAlreadyExists, e.ID)
		}
		if _, err := stmt.ExecContext(ctx, c.name, e.ID, next+i, e.Document,
			e.Metadata.PageNum, vectormath.Encode(e.Embedding)); err != nil {
			return fmt.Errorf("saving entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns up to k entries ranked by cosine similarity to embedding.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.IndexMatch, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, seq, document, page_num, embedding
		FROM index_entries WHERE collection = ? ORDER BY seq
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var (
		matches    []domain.IndexMatch
		candidates []vectormath.Candidate
	)
	for rows.Next() {
		var (
			m    domain.IndexMatch
			seq  int
			blob []byte
		)
		if err := rows.Scan(&m.ID, &seq, &m.Document, &m.PageNum, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		vec, err := vectormath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding entry %s: %w", m.ID, err)
		}
		candidates = append(candidates, vectormath.Candidate{
			Seq:        len(matches),
			Similarity: vectormath.Cosine(embedding, vec),
		})
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ranked := vectormath.TopK(candidates, k)
	out := make([]domain.IndexMatch, 0, len(ranked))
	for _, r := range ranked {
		m := matches[r.Seq]
		m.Similarity = r.Similarity
		out = append(out, m)
	}
	return out, nil
}

func entryExists(ctx context.Context, tx *sql.Tx, collection, id string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE collection = ? AND id = ?`, collection, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking entry %s: %w", id, err)
	}
	return n > 0, nil
}

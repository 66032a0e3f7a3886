package driven

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// VectorBackend stores named collections of index entries.
//
// Implementations include:
//   - In-memory maps
//   - SQLite (persistent, local)
//   - Redis hashes
//   - Elasticsearch dense_vector indices
type VectorBackend interface {
	// GetOrCreateCollection returns the named collection, creating it if needed.
	GetOrCreateCollection(ctx context.Context, name string) (VectorCollection, error)

	// DeleteCollection removes a collection and all its entries.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}

// VectorCollection is a single append-only set of index entries.
type VectorCollection interface {
	// Name returns the collection name.
	Name() string

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Add stores all entries in one operation. Either every entry is
	// stored or none is. Adding an ID that already exists is an error.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to k entries ordered by descending similarity to
	// the query vector. Exact ties keep insertion order.
	Query(ctx context.Context, embedding []float32, k int) ([]domain.IndexMatch, error)
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/vectormath"
)

// Ensure VectorBackend implements the interface.
var _ driven.VectorBackend = (*VectorBackend)(nil)

// VectorBackend is an in-memory implementation of driven.VectorBackend.
// Collections live for the lifetime of the process.
type VectorBackend struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewVectorBackend creates a new in-memory vector backend.
func NewVectorBackend() *VectorBackend {
	return &VectorBackend{
		collections: make(map[string]*Collection),
	}
}

// GetOrCreateCollection returns the named collection, creating it if needed.
func (b *VectorBackend) GetOrCreateCollection(_ context.Context, name string) (driven.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		c = &Collection{name: name, ids: make(map[string]struct{})}
		b.collections[name] = c
	}
	return c, nil
}

// DeleteCollection removes a collection. Unknown names are ignored.
func (b *VectorBackend) DeleteCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.collections, name)
	return nil
}

// Close releases the backend.
func (b *VectorBackend) Close() error {
	return nil
}

// Collection is a single in-memory vector collection.
type Collection struct {
	mu      sync.RWMutex
	name    string
	entries []domain.IndexEntry
	ids     map[string]struct{}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Count returns the number of stored entries.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// Add appends entries. The call is all-or-nothing: a duplicate id,
// either within entries or against stored ones, rejects the whole batch.
func (c *Collection) Add(_ context.Context, entries []domain.IndexEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
		}
		if _, ok := c.ids[e.ID]; ok {
			return fmt.Errorf("%w: entry %s", domain.ErrAlreadyExists, e.ID)
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: entry %s repeated in batch", domain.ErrAlreadyExists, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range entries {
		stored := e
		stored.Embedding = append([]float32(nil), e.Embedding...)
		c.entries = append(c.entries, stored)
		c.ids[e.ID] = struct{}{}
	}
	return nil
}

// Query returns up to k entries ranked by cosine similarity to embedding.
func (c *Collection) Query(_ context.Context, embedding []float32, k int) ([]domain.IndexMatch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates := make([]vectormath.Candidate, len(c.entries))
	for i, e := range c.entries {
		candidates[i] = vectormath.Candidate{
			Seq:        i,
			Similarity: vectormath.Cosine(embedding, e.Embedding),
		}
	}

	ranked := vectormath.TopK(candidates, k)
	matches := make([]domain.IndexMatch, 0, len(ranked))
	for _, r := range ranked {
		e := c.entries[r.Seq]
		matches = append(matches, domain.IndexMatch{
			ID:         e.ID,
			Document:   e.Document,
			PageNum:    e.Metadata.PageNum,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

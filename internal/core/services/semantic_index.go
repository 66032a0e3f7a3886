package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// SemanticIndex builds a session's vector collection from its clauses.
// Every failure is converted into a degraded handle; callers never see an error.
type SemanticIndex struct {
	backend  driven.VectorBackend
	embedder Embedder
}

// NewSemanticIndex creates a semantic index over backend.
func NewSemanticIndex(backend driven.VectorBackend, embedder Embedder) *SemanticIndex {
	return &SemanticIndex{
		backend:  backend,
		embedder: embedder,
	}
}

// EnsureIndexed populates collection from clauses if it is empty.
// A collection that already holds entries is returned unchanged.
func (s *SemanticIndex) EnsureIndexed(ctx context.Context, collection string, clauses []domain.Clause) *domain.IndexHandle {
	logger.Section("Semantic Index")

	handle, err := s.ensureIndexed(ctx, collection, clauses)
	if err != nil {
		reason := degradedReason(err)
		logger.Warn("%s", reason)
		return domain.NewDegradedHandle(collection, reason)
	}

	if handle.IsDegraded() {
		logger.Warn("Collection %s has no clauses to index", collection)
		return handle
	}

	logger.Debug("Collection %s operational with %d entries", collection, handle.Count)
	return handle
}

func (s *SemanticIndex) ensureIndexed(ctx context.Context, name string, clauses []domain.Clause) (*domain.IndexHandle, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("%w: no vector backend configured", domain.ErrConfiguration)
	}

	collection, err := s.backend.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}

	count, err := collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting collection %s: %w", name, err)
	}
	if count > 0 {
		logger.Debug("Collection %s already holds %d entries, skipping indexing", name, count)
		return domain.NewOperationalHandle(name, count), nil
	}

	if len(clauses) == 0 {
		return domain.NewDegradedHandle(name, domain.DefaultFailureReason), nil
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding gateway configured", domain.ErrConfiguration)
	}

	texts := make([]string, len(clauses))
	for i, c := range clauses {
		texts[i] = c.Text
	}

	logger.Debug("Generating embeddings for %d clauses", len(texts))
	start := time.Now()
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(clauses) {
		return nil, fmt.Errorf("%w: got %d vectors for %d clauses",
			domain.ErrMalformedResponse, len(vectors), len(clauses))
	}
	logger.Debug("Embeddings generated in %v", time.Since(start))

	entries := make([]domain.IndexEntry, len(clauses))
	for i, c := range clauses {
		entries[i] = domain.IndexEntry{
			ID:        c.ID,
			Embedding: vectors[i],
			Document:  c.Text,
			Metadata:  domain.EntryMetadata{PageNum: c.PageNum},
		}
	}

	if err := collection.Add(ctx, entries); err != nil {
		return nil, fmt.Errorf("adding entries to %s: %w", name, err)
	}

	return domain.NewOperationalHandle(name, len(entries)), nil
}

// IndexSession indexes a session's clauses once.
// A session whose index has settled keeps its handle, so a degraded
// session stays degraded and an operational one is never re-indexed.
func (s *SemanticIndex) IndexSession(ctx context.Context, session *domain.Session) *domain.IndexHandle {
	if session.Index.IsSettled() {
		return session.Index
	}

	session.Index = &domain.IndexHandle{
		Collection: session.CollectionName(),
		State:      domain.IndexIndexing,
	}
	session.Index = s.EnsureIndexed(ctx, session.CollectionName(), session.Clauses)
	return session.Index
}

// degradedReason matches an indexing error to the reason shown to users.
func degradedReason(err error) string {
	switch domain.KindOf(err) {
	case domain.KindConfiguration:
		return fmt.Sprintf("RAG Setup Error (Key Missing): %v", err)
	case domain.KindTransient, domain.KindMalformed, domain.KindAPI:
		return fmt.Sprintf("Gemini API Error during embedding generation: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred in RAG setup: %v", err)
	}
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// Messages returned by RetrievalService.Query in place of errors.
const (
	NoMatchesMessage     = "No relevant clauses found in the policy."
	APIFailureMessage    = "Error querying the policy index due to Gemini API failure."
	UnexpectedRAGMessage = "An unexpected error occurred during RAG query."
)

// DefaultTopK is used when a query asks for zero or fewer results.
const DefaultTopK = domain.DefaultTopK

// matchSeparator joins retrieved clause texts.
const matchSeparator = "\n---\n"

// RetrievalService answers free-text questions against an index handle.
type RetrievalService struct {
	backend  driven.VectorBackend
	embedder Embedder
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(backend driven.VectorBackend, embedder Embedder) *RetrievalService {
	return &RetrievalService{
		backend:  backend,
		embedder: embedder,
	}
}

// Query returns the texts of the k clauses closest to queryText, joined by
// a separator line. It never fails: degraded handles yield their failure
// reason and errors yield a fixed user-facing message.
func (r *RetrievalService) Query(ctx context.Context, handle *domain.IndexHandle, queryText string, k int) string {
	if handle.IsDegraded() {
		return handle.Reason()
	}

	matches, err := r.search(ctx, handle, queryText, k)
	if err != nil {
		kind := domain.KindOf(err)
		logger.Warn("RAG query failed (%s): %v", kind, err)
		if kind == domain.KindUnexpected {
			return UnexpectedRAGMessage
		}
		return APIFailureMessage
	}

	if len(matches) == 0 {
		return NoMatchesMessage
	}

	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Document
	}
	return strings.Join(docs, matchSeparator)
}

// Search returns structured matches for queryText.
// Degraded handles return domain.ErrIndexDegraded wrapping the failure reason.
func (r *RetrievalService) Search(ctx context.Context, handle *domain.IndexHandle, queryText string, k int) ([]domain.IndexMatch, error) {
	if handle.IsDegraded() {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexDegraded, handle.Reason())
	}
	return r.search(ctx, handle, queryText, k)
}

func (r *RetrievalService) search(ctx context.Context, handle *domain.IndexHandle, queryText string, k int) ([]domain.IndexMatch, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if r.embedder == nil || r.backend == nil {
		return nil, fmt.Errorf("%w: retrieval is not configured", domain.ErrConfiguration)
	}

	vector, err := r.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return nil, err
	}

	collection, err := r.backend.GetOrCreateCollection(ctx, handle.Collection)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", handle.Collection, err)
	}

	matches, err := collection.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", handle.Collection, err)
	}
	logger.Debug("Query %q matched %d clauses in %s", queryText, len(matches), handle.Collection)
	return matches, nil
}

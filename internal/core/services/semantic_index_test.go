package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// --- Mock implementations ---

const hashDims = 1024

// hashEmbedder builds deterministic bag-of-words vectors by hashing each
// lower-cased word into one of hashDims buckets.
type hashEmbedder struct {
	err        error
	short      bool
	batchCalls int
	oneCalls   int
}

func hashVector(text string) []float32 {
	v := make([]float32, hashDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%hashDims]++
	}
	return v
}

func (e *hashEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	e.oneCalls++
	if e.err != nil {
		return nil, e.err
	}
	return hashVector(text), nil
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	if e.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

// faultyBackend fails at a chosen step.
type faultyBackend struct {
	openErr  error
	countErr error
	addErr   error
	queryErr error
	count    int
	matches  []domain.IndexMatch
	added    int
}

func (b *faultyBackend) GetOrCreateCollection(_ context.Context, name string) (driven.VectorCollection, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return &faultyCollection{name: name, b: b}, nil
}

func (b *faultyBackend) DeleteCollection(_ context.Context, _ string) error { return nil }
func (b *faultyBackend) Close() error                                       { return nil }

type faultyCollection struct {
	name string
	b    *faultyBackend
}

func (c *faultyCollection) Name() string { return c.name }

func (c *faultyCollection) Count(_ context.Context) (int, error) {
	return c.b.count, c.b.countErr
}

func (c *faultyCollection) Add(_ context.Context, entries []domain.IndexEntry) error {
	if c.b.addErr != nil {
		return c.b.addErr
	}
	c.b.added += len(entries)
	return nil
}

func (c *faultyCollection) Query(_ context.Context, _ []float32, _ int) ([]domain.IndexMatch, error) {
	return c.b.matches, c.b.queryErr
}

var scenarioPages = []string{
	"Intro text.\n\nCoverage A applies to fire damage.",
	"Exclusions: flood is not covered.",
}

func TestSemanticIndex_EnsureIndexed_Success(t *testing.T) {
	backend := memory.NewVectorBackend()
	embedder := &hashEmbedder{}
	idx := NewSemanticIndex(backend, embedder)
	ctx := context.Background()

	handle := idx.EnsureIndexed(ctx, "policy_test", Segment(scenarioPages))

	require.NotNil(t, handle)
	assert.Equal(t, domain.IndexOperational, handle.State)
	assert.Equal(t, 3, handle.Count)
	assert.Equal(t, "policy_test", handle.Collection)
	assert.False(t, handle.IsDegraded())
	assert.Equal(t, 1, embedder.batchCalls)

	coll, err := backend.GetOrCreateCollection(ctx, "policy_test")
	require.NoError(t, err)
	matches, err := coll.Query(ctx, hashVector("flood"), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p2_c1", matches[0].ID)
	assert.Equal(t, 2, matches[0].PageNum)
}

func TestSemanticIndex_EnsureIndexed_ExistingCollectionIsReused(t *testing.T) {
	backend := memory.NewVectorBackend()
	embedder := &hashEmbedder{}
	idx := NewSemanticIndex(backend, embedder)
	ctx := context.Background()
	clauses := Segment(scenarioPages)

	first := idx.EnsureIndexed(ctx, "policy_test", clauses)
	second := idx.EnsureIndexed(ctx, "policy_test", clauses)

	assert.Equal(t, 3, first.Count)
	assert.Equal(t, 3, second.Count)
	assert.Equal(t, domain.IndexOperational, second.State)
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestSemanticIndex_EnsureIndexed_NoClauses(t *testing.T) {
	embedder := &hashEmbedder{}
	idx := NewSemanticIndex(memory.NewVectorBackend(), embedder)

	handle := idx.EnsureIndexed(context.Background(), "policy_empty", nil)

	assert.True(t, handle.IsDegraded())
	assert.Equal(t, domain.IndexDegraded, handle.State)
	assert.Equal(t, domain.DefaultFailureReason, handle.FailureReason)
	assert.Zero(t, embedder.batchCalls)
}

func TestSemanticIndex_EnsureIndexed_NoClausesIsNotLoggedOperational(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()

	handle := NewSemanticIndex(memory.NewVectorBackend(), &hashEmbedder{}).
		EnsureIndexed(context.Background(), "policy_empty", nil)

	require.True(t, handle.IsDegraded())
	assert.Contains(t, buf.String(), "Collection policy_empty has no clauses to index")
	assert.NotContains(t, buf.String(), "operational")
}

func TestSemanticIndex_EnsureIndexed_ErrorsBecomeDegraded(t *testing.T) {
	clauses := Segment(scenarioPages)

	tests := []struct {
		name     string
		backend  *faultyBackend
		embedder *hashEmbedder
		prefix   string
		contains string
	}{
		{
			name:     "missing key",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{err: fmt.Errorf("%w: GEMINI_API_KEY not set", domain.ErrConfiguration)},
			prefix:   "RAG Setup Error (Key Missing): ",
			contains: "GEMINI_API_KEY",
		},
		{
			name:     "transient exhaustion",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{err: fmt.Errorf("%w: failed after 3 attempts", domain.ErrTransientAPI)},
			prefix:   "Gemini API Error during embedding generation: ",
			contains: "after 3 attempts",
		},
		{
			name:     "malformed response",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{err: fmt.Errorf("%w: no embedding vectors found", domain.ErrMalformedResponse)},
			prefix:   "Gemini API Error during embedding generation: ",
			contains: "no embedding vectors found",
		},
		{
			name:     "rejected request",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{err: fmt.Errorf("%w: gemini: 400 INVALID_ARGUMENT: model not found", domain.ErrAPI)},
			prefix:   "Gemini API Error during embedding generation: ",
			contains: "model not found",
		},
		{
			name:     "vector count mismatch",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{short: true},
			prefix:   "Gemini API Error during embedding generation: ",
			contains: "got 2 vectors for 3 clauses",
		},
		{
			name:     "unexpected embedder error",
			backend:  &faultyBackend{},
			embedder: &hashEmbedder{err: errors.New("boom")},
			prefix:   "An unexpected error occurred in RAG setup: ",
			contains: "boom",
		},
		{
			name:     "backend open failure",
			backend:  &faultyBackend{openErr: errors.New("connection refused")},
			embedder: &hashEmbedder{},
			prefix:   "An unexpected error occurred in RAG setup: ",
			contains: "connection refused",
		},
		{
			name:     "backend count failure",
			backend:  &faultyBackend{countErr: errors.New("count failed")},
			embedder: &hashEmbedder{},
			prefix:   "An unexpected error occurred in RAG setup: ",
			contains: "count failed",
		},
		{
			name:     "backend add failure",
			backend:  &faultyBackend{addErr: errors.New("disk full")},
			embedder: &hashEmbedder{},
			prefix:   "An unexpected error occurred in RAG setup: ",
			contains: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewSemanticIndex(tt.backend, tt.embedder)

			handle := idx.EnsureIndexed(context.Background(), "policy_x", clauses)

			require.NotNil(t, handle)
			assert.Equal(t, domain.IndexDegraded, handle.State)
			assert.True(t, strings.HasPrefix(handle.FailureReason, tt.prefix), handle.FailureReason)
			assert.Contains(t, handle.FailureReason, tt.contains)
			assert.Zero(t, tt.backend.added)
		})
	}
}

func TestSemanticIndex_EnsureIndexed_NilDependencies(t *testing.T) {
	clauses := Segment(scenarioPages)

	handle := NewSemanticIndex(nil, &hashEmbedder{}).EnsureIndexed(context.Background(), "c", clauses)
	assert.True(t, strings.HasPrefix(handle.FailureReason, "RAG Setup Error (Key Missing): "))

	handle = NewSemanticIndex(memory.NewVectorBackend(), nil).EnsureIndexed(context.Background(), "c", clauses)
	assert.True(t, strings.HasPrefix(handle.FailureReason, "RAG Setup Error (Key Missing): "))
}

func TestSemanticIndex_IndexSession(t *testing.T) {
	embedder := &hashEmbedder{}
	idx := NewSemanticIndex(memory.NewVectorBackend(), embedder)
	session := &domain.Session{
		ID:      "6f1c2d3e-0000-4000-8000-000000000001",
		Clauses: Segment(scenarioPages),
	}
	assert.Equal(t, domain.IndexUninitialized, session.IndexState())

	handle := idx.IndexSession(context.Background(), session)

	assert.Equal(t, domain.IndexOperational, session.IndexState())
	assert.Same(t, handle, session.Index)
	assert.Equal(t, "policy_6f1c2d3e000040008000000000000001", handle.Collection)

	again := idx.IndexSession(context.Background(), session)
	assert.Same(t, handle, again)
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestSemanticIndex_IndexSession_DegradedIsTerminal(t *testing.T) {
	embedder := &hashEmbedder{err: domain.ErrTransientAPI}
	idx := NewSemanticIndex(memory.NewVectorBackend(), embedder)
	session := &domain.Session{ID: "s1", Clauses: Segment(scenarioPages)}

	first := idx.IndexSession(context.Background(), session)
	require.True(t, first.IsDegraded())

	// Even once the provider recovers the session keeps its degraded handle.
	embedder.err = nil
	second := idx.IndexSession(context.Background(), session)

	assert.Same(t, first, second)
	assert.Equal(t, domain.IndexDegraded, session.IndexState())
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestDegradedReason(t *testing.T) {
	assert.Equal(t, "RAG Setup Error (Key Missing): configuration error",
		degradedReason(domain.ErrConfiguration))
	assert.Equal(t, "Gemini API Error during embedding generation: transient API error",
		degradedReason(domain.ErrTransientAPI))
	assert.Equal(t, "Gemini API Error during embedding generation: API error",
		degradedReason(domain.ErrAPI))
	assert.Equal(t, "An unexpected error occurred in RAG setup: x",
		degradedReason(errors.New("x")))
}

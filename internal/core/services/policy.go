package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// Ensure PolicyService implements the interface.
var _ driving.PolicyService = (*PolicyService)(nil)

// PolicyService runs the decode pipeline and answers questions about
// decoded sessions. Work on a single session is serialised.
type PolicyService struct {
	fetcher   driven.PolicyFetcher
	extractor driven.PageExtractor
	store     driven.SessionStore
	backend   driven.VectorBackend
	index     *SemanticIndex
	retrieval *RetrievalService
	analysis  *AnalysisService
	topK      int

	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPolicyService creates a policy service.
// fetcher may be nil, in which case references are treated as local paths.
// analysis may be nil, in which case Analyze returns domain.ErrLLMUnavailable.
func NewPolicyService(
	fetcher driven.PolicyFetcher,
	extractor driven.PageExtractor,
	store driven.SessionStore,
	backend driven.VectorBackend,
	embedder Embedder,
	analysis *AnalysisService,
) *PolicyService {
	return &PolicyService{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		backend:   backend,
		index:     NewSemanticIndex(backend, embedder),
		retrieval: NewRetrievalService(backend, embedder),
		analysis:  analysis,
		topK:      DefaultTopK,
		now:       time.Now,
		newID:     uuid.NewString,
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetDefaultTopK sets the number of matches used when a query passes k <= 0.
func (s *PolicyService) SetDefaultTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

// Decode fetches, extracts, segments and indexes a policy document.
func (s *PolicyService) Decode(ctx context.Context, ref string) (*domain.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty document reference", domain.ErrInvalidInput)
	}

	logger.Section("Decode")

	path, cleanup, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref, err)
	}
	defer cleanup()

	if s.extractor == nil || !s.extractor.Supports(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Base(path))
	}

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	pageCount, err := s.extractor.PageCount(ctx, path)
	if err != nil {
		logger.Warn("Page count unavailable for %s, using extracted pages: %v", path, err)
		pageCount = len(pages)
	}

	clauses := Segment(pages)
	logger.Debug("Segmented %d pages into %d clauses", len(pages), CountClauses(clauses))

	now := s.now()
	session := &domain.Session{
		ID:        s.newID(),
		FileName:  filepath.Base(path),
		Source:    ref,
		PageTexts: pages,
		PageCount: pageCount,
		Clauses:   clauses,
		CreatedAt: now,
		UpdatedAt: now,
	}

	unlock := s.lock(session.ID)
	defer unlock()

	s.index.IndexSession(ctx, session)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	logger.Info("Decoded %s: %d pages, %d clauses, index %s",
		session.FileName, session.PageCount, len(session.Clauses), session.IndexState())
	return session, nil
}

// Analyze runs the LLM summary and page analysis for a session.
func (s *PolicyService) Analyze(ctx context.Context, sessionID string) (*domain.Analysis, error) {
	if s.analysis == nil || !s.analysis.Available() {
		return nil, domain.ErrLLMUnavailable
	}

	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analysis.Analyze(ctx, session.PageTexts)
	if err != nil {
		return nil, err
	}

	session.Analysis = analysis
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return analysis, nil
}

// Query answers queryText from the session's index as display text.
func (s *PolicyService) Query(ctx context.Context, sessionID, queryText string, k int) (string, error) {
	if strings.TrimSpace(queryText) == "" {
		return "", fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	session, err := s.indexed(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.retrieval.Query(ctx, session.Index, queryText, s.k(k)), nil
}

// Search returns structured matches for queryText.
func (s *PolicyService) Search(ctx context.Context, sessionID, queryText string, k int) ([]domain.IndexMatch, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	session, err := s.indexed(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.retrieval.Search(ctx, session.Index, queryText, s.k(k))
}

// Clauses returns the session's clauses in document order.
func (s *PolicyService) Clauses(ctx context.Context, sessionID string) ([]domain.Clause, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Clauses, nil
}

// KeyTerms returns the clauses closest to the policy's definitions.
func (s *PolicyService) KeyTerms(ctx context.Context, sessionID string) (string, error) {
	return s.Query(ctx, sessionID, driving.KeyTermsQuery, driving.KeyTermsTopK)
}

// Report compiles the plain-text report for an analysed session.
func (s *PolicyService) Report(ctx context.Context, sessionID string) (string, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return BuildReport(session)
}

// Get returns a session by ID.
func (s *PolicyService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.get(ctx, sessionID)
}

// List returns summaries of all sessions, newest first.
func (s *PolicyService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.store.List(ctx)
}

// Delete removes a session and its vector collection.
func (s *PolicyService) Delete(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.get(ctx, sessionID)
	if err != nil {
		return err
	}

	if s.backend != nil {
		if err := s.backend.DeleteCollection(ctx, session.CollectionName()); err != nil {
			return fmt.Errorf("deleting collection %s: %w", session.CollectionName(), err)
		}
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *PolicyService) get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return session, nil
}

// indexed returns the session, indexing it first if an earlier run never
// settled its index.
func (s *PolicyService) indexed(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Index.IsSettled() {
		return session, nil
	}

	unlock := s.lock(sessionID)
	defer unlock()

	// Another caller may have finished indexing while we waited.
	session, err = s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Index.IsSettled() {
		return session, nil
	}

	s.index.IndexSession(ctx, session)
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

func (s *PolicyService) fetch(ctx context.Context, ref string) (string, func(), error) {
	if s.fetcher == nil {
		return ref, func() {}, nil
	}
	return s.fetcher.Fetch(ctx, ref)
}

func (s *PolicyService) k(k int) int {
	if k <= 0 {
		return s.topK
	}
	return k
}

// lock acquires the per-session mutex and returns its release function.
func (s *PolicyService) lock(sessionID string) func() {
	s.mu.Lock()
	m, ok := s.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sessionID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package httpapi

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// mockPolicyService is a mock implementation of driving.PolicyService.
type mockPolicyService struct {
	session  *domain.Session
	sessions []domain.SessionSummary
	analysis *domain.Analysis
	matches  []domain.IndexMatch
	answer   string
	report   string
	err      error

	decodeFn func(ref string) (*domain.Session, error)

	lastID    string
	lastQuery string
	lastK     int
	deleted   []string
}

var _ driving.PolicyService = (*mockPolicyService)(nil)

func (m *mockPolicyService) Decode(_ context.Context, ref string) (*domain.Session, error) {
	if m.decodeFn != nil {
		return m.decodeFn(ref)
	}
	return m.session, m.err
}

func (m *mockPolicyService) Analyze(_ context.Context, id string) (*domain.Analysis, error) {
	m.lastID = id
	return m.analysis, m.err
}

func (m *mockPolicyService) Query(_ context.Context, id, queryText string, k int) (string, error) {
	m.lastID, m.lastQuery, m.lastK = id, queryText, k
	return m.answer, m.err
}

func (m *mockPolicyService) Search(_ context.Context, id, queryText string, k int) ([]domain.IndexMatch, error) {
	m.lastID, m.lastQuery, m.lastK = id, queryText, k
	return m.matches, m.err
}

func (m *mockPolicyService) Clauses(_ context.Context, id string) ([]domain.Clause, error) {
	m.lastID = id
	if m.err != nil || m.session == nil {
		return nil, m.err
	}
	return m.session.Clauses, nil
}

func (m *mockPolicyService) KeyTerms(_ context.Context, id string) (string, error) {
	m.lastID = id
	return m.answer, m.err
}

func (m *mockPolicyService) Report(_ context.Context, id string) (string, error) {
	m.lastID = id
	return m.report, m.err
}

func (m *mockPolicyService) Get(_ context.Context, id string) (*domain.Session, error) {
	m.lastID = id
	return m.session, m.err
}

func (m *mockPolicyService) List(_ context.Context) ([]domain.SessionSummary, error) {
	return m.sessions, m.err
}

func (m *mockPolicyService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:        "sess-1",
		FileName:  "home.pdf",
		Source:    "/tmp/home.pdf",
		PageTexts: []string{"Flood is excluded."},
		PageCount: 1,
		Clauses:   []domain.Clause{{ID: "p1_c1", PageNum: 1, Text: "Flood is excluded."}},
		Index:     domain.NewOperationalHandle("policy_sess1", 1),
	}
}

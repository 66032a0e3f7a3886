package mcp

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
	answer   string
	report   string
	err      error

	// reportErrs is consumed one per Report call before falling back to err.
	reportErrs []error

	lastRef   string
	lastQuery string
	lastK     int
	analyzed  int
}

var _ driving.PolicyService = (*mockPolicyService)(nil)

func (m *mockPolicyService) Decode(_ context.Context, ref string) (*domain.Session, error) {
	m.lastRef = ref
	return m.session, m.err
}

func (m *mockPolicyService) Analyze(_ context.Context, _ string) (*domain.Analysis, error) {
	m.analyzed++
	return m.analysis, m.err
}

func (m *mockPolicyService) Query(_ context.Context, _, queryText string, k int) (string, error) {
	m.lastQuery = queryText
	m.lastK = k
	return m.answer, m.err
}

func (m *mockPolicyService) Search(_ context.Context, _, _ string, _ int) ([]domain.IndexMatch, error) {
	return nil, m.err
}

func (m *mockPolicyService) Clauses(_ context.Context, _ string) ([]domain.Clause, error) {
	if m.err != nil || m.session == nil {
		return nil, m.err
	}
	return m.session.Clauses, nil
}

func (m *mockPolicyService) KeyTerms(_ context.Context, _ string) (string, error) {
	return m.answer, m.err
}

func (m *mockPolicyService) Report(_ context.Context, _ string) (string, error) {
	if len(m.reportErrs) > 0 {
		err := m.reportErrs[0]
		m.reportErrs = m.reportErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.report, m.err
}

func (m *mockPolicyService) Get(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockPolicyService) List(_ context.Context) ([]domain.SessionSummary, error) {
	return m.sessions, m.err
}

func (m *mockPolicyService) Delete(_ context.Context, _ string) error {
	return m.err
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:        "sess-1",
		FileName:  "home.pdf",
		PageTexts: []string{"Flood is excluded.", "Fire is covered."},
		PageCount: 2,
		Clauses: []domain.Clause{
			{ID: "p1_c1", PageNum: 1, Text: "Flood is excluded."},
			{ID: "p2_c1", PageNum: 2, Text: "Fire is covered."},
		},
		Index: domain.NewOperationalHandle("policy_sess1", 2),
	}
}

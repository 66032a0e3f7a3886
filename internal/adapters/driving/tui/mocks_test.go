package tui

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// mockPolicyService is a mock implementation of driving.PolicyService.
type mockPolicyService struct {
	session    *domain.Session
	getErr     error
	analysis   *domain.Analysis
	analyzeErr error
	matches    []domain.IndexMatch

	analyzeCalls int
}

var _ driving.PolicyService = (*mockPolicyService)(nil)

func (m *mockPolicyService) Decode(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, nil
}

func (m *mockPolicyService) Analyze(_ context.Context, _ string) (*domain.Analysis, error) {
	m.analyzeCalls++
	return m.analysis, m.analyzeErr
}

func (m *mockPolicyService) Query(_ context.Context, _, _ string, _ int) (string, error) {
	return "", nil
}

func (m *mockPolicyService) Search(_ context.Context, _, _ string, _ int) ([]domain.IndexMatch, error) {
	return m.matches, nil
}

func (m *mockPolicyService) Clauses(_ context.Context, _ string) ([]domain.Clause, error) {
	return m.session.Clauses, nil
}

func (m *mockPolicyService) KeyTerms(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (m *mockPolicyService) Report(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (m *mockPolicyService) Get(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.getErr
}

func (m *mockPolicyService) List(_ context.Context) ([]domain.SessionSummary, error) {
	return nil, nil
}

func (m *mockPolicyService) Delete(_ context.Context, _ string) error {
	return nil
}

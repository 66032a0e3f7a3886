package cli

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

type mockPolicyService struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	decodeErr  error
	analyzeErr error
	queryErr   error
	reportErr  error

	lastRef   string
	lastQuery string
	lastK     int
	deleted   []string
}

var _ driving.PolicyService = (*mockPolicyService)(nil)

func newMockPolicyService() *mockPolicyService {
	return &mockPolicyService{sessions: map[string]*domain.Session{"s1": testSession()}}
}

func testSession() *domain.Session {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Session{
		ID:        "s1",
		FileName:  "home.pdf",
		Source:    "/tmp/home.pdf",
		PageTexts: []string{"Flood is covered.\n\nWar is excluded."},
		PageCount: 1,
		Clauses: []domain.Clause{
			{ID: "p1_c1", PageNum: 1, Text: "Flood is covered."},
			{ID: "p1_c2", PageNum: 1, Text: "War is excluded."},
		},
		Index:     domain.NewOperationalHandle("policy_s1", 2),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (m *mockPolicyService) session(id string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockPolicyService) Decode(_ context.Context, ref string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRef = ref
	if m.decodeErr != nil {
		return nil, m.decodeErr
	}
	return m.sessions["s1"], nil
}

func (m *mockPolicyService) decodedRef() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRef
}

func (m *mockPolicyService) Analyze(_ context.Context, id string) (*domain.Analysis, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, err
	}
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	s.Analysis = &domain.Analysis{
		FullSummary: "Buildings cover with flood included.",
		Pages: []domain.PageAnalysis{
			{PageNumber: 1, Classification: domain.ClassificationCoverage, Summary: "Flood cover."},
		},
	}
	return s.Analysis, nil
}

func (m *mockPolicyService) Query(_ context.Context, id, q string, k int) (string, error) {
	m.lastQuery = q
	m.lastK = k
	if _, err := m.session(id); err != nil {
		return "", err
	}
	if m.queryErr != nil {
		return "", m.queryErr
	}
	return "Clause ID: p1_c1 (page 1)\nFlood is covered.", nil
}

func (m *mockPolicyService) Search(_ context.Context, id, _ string, _ int) ([]domain.IndexMatch, error) {
	if _, err := m.session(id); err != nil {
		return nil, err
	}
	return []domain.IndexMatch{{ID: "p1_c1", Document: "Flood is covered.", PageNum: 1, Similarity: 0.9}}, nil
}

func (m *mockPolicyService) Clauses(_ context.Context, id string) ([]domain.Clause, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, err
	}
	return s.Clauses, nil
}

func (m *mockPolicyService) KeyTerms(_ context.Context, id string) (string, error) {
	if _, err := m.session(id); err != nil {
		return "", err
	}
	return "Clause ID: p1_c1 (page 1)\n\"Flood\" means water.", nil
}

func (m *mockPolicyService) Report(_ context.Context, id string) (string, error) {
	if _, err := m.session(id); err != nil {
		return "", err
	}
	if m.reportErr != nil {
		return "", m.reportErr
	}
	return "POLICY REPORT\n\nSummary text.", nil
}

func (m *mockPolicyService) Get(_ context.Context, id string) (*domain.Session, error) {
	return m.session(id)
}

func (m *mockPolicyService) List(_ context.Context) ([]domain.SessionSummary, error) {
	out := make([]domain.SessionSummary, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPolicyService) Delete(_ context.Context, id string) error {
	if _, err := m.session(id); err != nil {
		return err
	}
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSettingsService struct {
	settings    domain.Settings
	values      map[string]string
	setErr      error
	validateErr error
}

var _ driving.SettingsService = (*mockSettingsService)(nil)

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings()
	s.Embedding.APIKey = "gm-1234567890abcd"
	s.DataDir = "/tmp/clausewise"
	return &mockSettingsService{
		settings: s,
		values:   map[string]string{"llm.provider": "gemini", "llm.api_key": "sk-abcdefghijklmnop"},
	}
}

func (m *mockSettingsService) Load() (domain.Settings, error) { return m.settings, nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockSettingsService) Keys() []string { return []string{"llm.api_key", "llm.provider"} }

func (m *mockSettingsService) Path() string { return "/tmp/clausewise/config.toml" }

func (m *mockSettingsService) Validate(context.Context) error { return m.validateErr }

// setupTestServices installs fresh mocks and returns them with a restore func.
func setupTestServices() (*mockPolicyService, *mockSettingsService, func()) {
	prevPolicy, prevSettings, prevTopK := policyService, settingsService, defaultTopK
	policy := newMockPolicyService()
	settings := newMockSettingsService()
	SetServices(policy, settings)
	defaultTopK = domain.DefaultTopK

	return policy, settings, func() {
		policyService, settingsService, defaultTopK = prevPolicy, prevSettings, prevTopK
	}
}

// executeCommand runs rootCmd with args and returns everything written.
func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores scalar flags to their defaults between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed || strings.HasSuffix(f.Value.Type(), "Slice") {
			return
		}
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

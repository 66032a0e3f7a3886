package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// Ensure AnalysisService accepts a prompt store.
var _ driven.PromptStoreAware = (*AnalysisService)(nil)

// AnalysisService produces the policy summary and per-page classification.
type AnalysisService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewAnalysisService creates an analysis service. llm may be nil, in which
// case every call returns domain.ErrLLMUnavailable.
func NewAnalysisService(llm driven.LLMService) *AnalysisService {
	return &AnalysisService{llm: llm}
}

// SetPromptStore sets the store used to load customised prompts.
func (s *AnalysisService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Available reports whether an LLM is configured.
func (s *AnalysisService) Available() bool {
	return s.llm != nil
}

// Analyze runs both the summary and the page analysis.
func (s *AnalysisService) Analyze(ctx context.Context, pageTexts []string) (*domain.Analysis, error) {
	logger.Section("Policy Analysis")

	summary, err := s.FullSummary(ctx, strings.Join(pageTexts, "\n"))
	if err != nil {
		return nil, err
	}
	pages, err := s.AnalyzePages(ctx, pageTexts)
	if err != nil {
		return nil, err
	}

	return &domain.Analysis{
		FullSummary: summary,
		Pages:       pages,
		Model:       s.llm.ModelName(),
	}, nil
}

// FullSummary returns a plain-language summary of the whole policy.
func (s *AnalysisService) FullSummary(ctx context.Context, fullText string) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	system := s.prompt(driven.PromptSummarySystem)
	user := fmt.Sprintf(s.prompt(driven.PromptSummaryUser), fullText)

	logger.Debug("Requesting policy summary (%d characters)", len(fullText))
	text, err := s.llm.Generate(ctx, user, driven.GenerateOptions{SystemPrompt: system})
	if err != nil {
		return "", fmt.Errorf("full summary generation: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// AnalyzePages classifies and summarises each page.
func (s *AnalysisService) AnalyzePages(ctx context.Context, pageTexts []string) ([]domain.PageAnalysis, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if len(pageTexts) == 0 {
		return nil, nil
	}

	blocks := make([]string, len(pageTexts))
	for i, text := range pageTexts {
		blocks[i] = fmt.Sprintf("--- PAGE %d ---\n%s\n", i+1, text)
	}
	prompt := s.prompt(driven.PromptPageAnalysisUser) + "\n\n" + strings.Join(blocks, "\n")

	logger.Debug("Requesting page analysis for %d pages", len(pageTexts))
	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt: s.prompt(driven.PromptPageAnalysisSystem),
		JSON:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("page analysis: %w", err)
	}

	pages, err := ParsePageAnalysis(raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("Page analysis returned %d records", len(pages))
	return pages, nil
}

// ParsePageAnalysis decodes the model's JSON array after stripping code
// fences. Classifications are normalised and records without a valid page
// number are dropped.
func ParsePageAnalysis(raw string) ([]domain.PageAnalysis, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var records []struct {
		PageNumber     int    `json:"pageNumber"`
		Classification string `json:"classification"`
		Summary        string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, fmt.Errorf("%w: page analysis is not a JSON array: %w", domain.ErrMalformedResponse, err)
	}

	pages := make([]domain.PageAnalysis, 0, len(records))
	for _, r := range records {
		if r.PageNumber < 1 {
			logger.Debug("Dropping page analysis record with page number %d", r.PageNumber)
			continue
		}
		pages = append(pages, domain.PageAnalysis{
			PageNumber:     r.PageNumber,
			Classification: domain.ParseClassification(r.Classification),
			Summary:        strings.TrimSpace(r.Summary),
		})
	}
	return pages, nil
}

// prompt loads a template from the store, falling back to the built-in text.
func (s *AnalysisService) prompt(name string) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	p, _ := driven.DefaultPrompt(name)
	return p
}

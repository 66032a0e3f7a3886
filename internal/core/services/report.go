package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

const (
	reportRule          = "========================================================================"
	reportExcerptLength = 200
	missingSummary      = "Summary generation failed due to API or connection error."
)

// BuildReport renders the plain-text decoded report for a session.
// Returns domain.ErrInvalidInput if the session has not been analysed.
func BuildReport(session *domain.Session) (string, error) {
	if session == nil || session.Analysis == nil {
		return "", fmt.Errorf("%w: run analysis before building the report", domain.ErrInvalidInput)
	}

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "INSURANCE POLICY DECODED REPORT: %s\n", session.DisplayName())
	b.WriteString(reportRule + "\n\n")

	b.WriteString("--- 1. HIGH-LEVEL POLICY SUMMARY ---\n")
	summary := session.Analysis.FullSummary
	if summary == "" {
		summary = missingSummary
	}
	b.WriteString(summary + "\n\n")

	b.WriteString("--- 2. DETAILED PAGE-BY-PAGE ANALYSIS (Classification & Summary) ---\n")
	for _, page := range session.Analysis.Pages {
		fmt.Fprintf(&b, "\n[PAGE %d | CLASSIFICATION: %s]\n", page.PageNumber, strings.ToUpper(page.Classification.String()))
		fmt.Fprintf(&b, "Simplified Summary: %s\n", page.Summary)
	}

	b.WriteString("\n\n--- 3. RAW CLAUSE EXTRACT (For Reference) ---\n")
	fmt.Fprintf(&b, "Total Clauses: %d\n", CountClauses(session.Clauses))
	for _, clause := range session.Clauses {
		fmt.Fprintf(&b, "[%s]\n%s...\n\n", clause.Label(), clause.Excerpt(reportExcerptLength))
	}

	return b.String(), nil
}

// ReportFileName returns the suggested download name for a session report.
func ReportFileName(session *domain.Session) string {
	name := "policy"
	if session != nil && session.FileName != "" {
		name = session.FileName
	}
	return "decoded_policy_report_" + name + ".txt"
}

package domain

import "strings"

// Classification is the primary section type of a policy page.
type Classification string

// Page classifications.
const (
	ClassificationCoverage      Classification = "Coverage"
	ClassificationExclusions    Classification = "Exclusions"
	ClassificationClaimsProcess Classification = "Claims Process"
	ClassificationDeductibles   Classification = "Deductibles/Limits"
	ClassificationGeneralTerms  Classification = "General Terms"
	ClassificationDefinitions   Classification = "Definitions"
)

// Classifications returns every valid classification in display order.
func Classifications() []Classification {
	return []Classification{
		ClassificationCoverage,
		ClassificationExclusions,
		ClassificationClaimsProcess,
		ClassificationDeductibles,
		ClassificationGeneralTerms,
		ClassificationDefinitions,
	}
}

// IsValid returns true if the classification is recognised.
func (c Classification) IsValid() bool {
	for _, known := range Classifications() {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (c Classification) String() string {
	return string(c)
}

// ParseClassification matches s case-insensitively against the known
// classifications. Unknown values map to General Terms.
func ParseClassification(s string) Classification {
	s = strings.TrimSpace(s)
	for _, known := range Classifications() {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return ClassificationGeneralTerms
}

// PageAnalysis is the LLM's classification and plain-language summary of one page.
type PageAnalysis struct {
	PageNumber     int            `json:"pageNumber"`
	Classification Classification `json:"classification"`
	Summary        string         `json:"summary"`
}

// Analysis is the LLM output for a whole document.
type Analysis struct {
	// FullSummary is the policy-level summary.
	FullSummary string `json:"full_summary"`

	// Pages holds one record per analysed page.
	Pages []PageAnalysis `json:"page_analysis"`

	// Model is the LLM model that produced the analysis.
	Model string `json:"model,omitempty"`
}

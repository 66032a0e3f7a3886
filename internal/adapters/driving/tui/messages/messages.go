// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// SessionLoaded carries the session shown by the TUI.
type SessionLoaded struct {
	Session *domain.Session
	Err     error
}

// AnalysisRequested asks the app to run the LLM analysis.
type AnalysisRequested struct{}

// AnalysisCompleted carries the analysis result.
type AnalysisCompleted struct {
	Analysis *domain.Analysis
	Err      error
}

// QueryCompleted carries the answer to a question.
// Matches is empty when the index is degraded; Answer then holds the reason.
type QueryCompleted struct {
	Query   string
	Matches []domain.IndexMatch
	Answer  string
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewClauses lists the clauses in document order.
	ViewClauses ViewType = iota
	// ViewAnalysis shows the summary and page classifications.
	ViewAnalysis
	// ViewQuery is the question box and its matches.
	ViewQuery
	// ViewHelp is the keybindings view.
	ViewHelp
)

// Tabs lists the views reachable with the view switcher, in order.
var Tabs = []ViewType{ViewClauses, ViewAnalysis, ViewQuery}

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewClauses:
		return "clauses"
	case ViewAnalysis:
		return "analysis"
	case ViewQuery:
		return "query"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Next returns the tab after v, wrapping around.
func (v ViewType) Next() ViewType {
	for i, t := range Tabs {
		if t == v {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return Tabs[0]
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

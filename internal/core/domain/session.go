package domain

import (
	"strings"
	"time"
)

// Session is one decoded policy document.
// The session owns its clauses and index handle; services borrow it per call.
type Session struct {
	// ID is a UUID assigned when the document is decoded.
	ID string `json:"id"`

	// FileName is the base name of the source document.
	FileName string `json:"file_name"`

	// Source is the reference the document was fetched from.
	Source string `json:"source,omitempty"`

	// PageTexts holds the extracted text of each page in order.
	PageTexts []string `json:"page_texts"`

	// PageCount is the number of pages reported by the document.
	PageCount int `json:"page_count"`

	// Clauses is the segmenter output.
	Clauses []Clause `json:"clauses"`

	// Index is nil until indexing has been attempted.
	Index *IndexHandle `json:"index,omitempty"`

	// Analysis is nil until the LLM analysis has run.
	Analysis *Analysis `json:"analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionName returns the vector collection scoped to this session.
func (s *Session) CollectionName() string {
	return "policy_" + strings.ReplaceAll(s.ID, "-", "")
}

// IndexState returns the current index state.
func (s *Session) IndexState() IndexState {
	if s.Index == nil {
		return IndexUninitialized
	}
	return s.Index.State
}

// FullText joins page texts the way the summariser expects.
func (s *Session) FullText() string {
	return strings.Join(s.PageTexts, "\n")
}

// DisplayName returns the file name or a generic fallback.
func (s *Session) DisplayName() string {
	if s.FileName == "" {
		return "Policy"
	}
	return s.FileName
}

// SessionSummary is the listing form of a session.
type SessionSummary struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name"`
	PageCount   int        `json:"page_count"`
	ClauseCount int        `json:"clause_count"`
	IndexState  IndexState `json:"index_state"`
	Analysed    bool       `json:"analysed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Summary returns the listing form of the session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		FileName:    s.FileName,
		PageCount:   s.PageCount,
		ClauseCount: len(s.Clauses),
		IndexState:  s.IndexState(),
		Analysed:    s.Analysis != nil,
		CreatedAt:   s.CreatedAt,
	}
}

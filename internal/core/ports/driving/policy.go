package driving

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// KeyTermsQuery is the retrieval query used for the key terms view.
const KeyTermsQuery = "Definitions of key terms and words in the policy."

// KeyTermsTopK is the number of clauses returned for the key terms view.
const KeyTermsTopK = 3

// PolicyService decodes policy documents and answers questions about them.
type PolicyService interface {
	// Decode fetches ref, extracts and segments its pages, indexes the
	// clauses and stores the resulting session.
	// Indexing failures do not fail Decode; they leave a degraded index.
	Decode(ctx context.Context, ref string) (*domain.Session, error)

	// Analyze runs the LLM summary and page analysis and stores the result.
	Analyze(ctx context.Context, sessionID string) (*domain.Analysis, error)

	// Query answers queryText from the session index as display text.
	// Index and provider failures are returned as text, not errors.
	Query(ctx context.Context, sessionID, queryText string, k int) (string, error)

	// Search returns structured matches for queryText.
	// Returns domain.ErrIndexDegraded if the index is degraded.
	Search(ctx context.Context, sessionID, queryText string, k int) ([]domain.IndexMatch, error)

	// Clauses returns the session's clauses in document order.
	Clauses(ctx context.Context, sessionID string) ([]domain.Clause, error)

	// KeyTerms returns the clauses most related to policy definitions.
	KeyTerms(ctx context.Context, sessionID string) (string, error)

	// Report compiles the plain-text report. Requires a prior Analyze.
	Report(ctx context.Context, sessionID string) (string, error)

	// Get returns a session by ID.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// List returns summaries of all sessions.
	List(ctx context.Context) ([]domain.SessionSummary, error)

	// Delete removes a session and its vector collection.
	Delete(ctx context.Context, sessionID string) error
}

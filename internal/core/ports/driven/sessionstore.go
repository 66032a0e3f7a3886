package driven

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// SessionStore persists decoded policy sessions.
type SessionStore interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns summaries of all sessions, newest first.
	List(ctx context.Context) ([]domain.SessionSummary, error)

	// Delete removes a session.
	// Returns domain.ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}

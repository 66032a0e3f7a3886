package driven

import (
	"context"
	"encoding/json"
)

// EmbeddingProvider sends embedding requests to a remote model.
//
// Providers return the raw response payload; the embedding gateway in
// core/services decodes it, so response shape differences between API
// versions are handled in one place.
//
// Errors that may succeed on retry must wrap domain.ErrTransientAPI.
// Missing credentials must be reported by the constructor wrapping
// domain.ErrConfiguration, never per call.
//
// Implementations include:
//   - Gemini (google.golang.org/genai)
//   - OpenAI and compatible servers
//   - Ollama
type EmbeddingProvider interface {
	// EmbedContent requests one vector per text and returns the raw payload.
	EmbedContent(ctx context.Context, texts []string) (json.RawMessage, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

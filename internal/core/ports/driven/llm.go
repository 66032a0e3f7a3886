package driven

import "context"

// LLMService provides language model operations for policy analysis.
// This is an optional service - when nil, summary and page analysis are disabled.
//
// Implementations include:
//   - Gemini (google.golang.org/genai)
//   - OpenAI and compatible servers
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// SystemPrompt sets the model's instruction for this call.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON requests a JSON response body.
	JSON bool
}

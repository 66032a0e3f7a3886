// Package gemini provides an embedding provider for the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/custodia-labs/clausewise/internal/adapters/driven/apierr"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-004"

// Config holds configuration for the Gemini embedding provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Provider calls Models.EmbedContent.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a Gemini embedding provider.
// A missing API key is reported here, never per call.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, apierr.MissingKey("gemini", "GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Provider{client: client, model: cfg.Model}, nil
}

// EmbedContent embeds texts and returns the response re-encoded as JSON,
// in the shape {"embeddings": [{"values": [...]}, ...]}.
func (p *Provider) EmbedContent(ctx context.Context, texts []string) (json.RawMessage, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, apierr.FromGenAI(err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode response: %w", err)
	}
	return raw, nil
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping embeds a short string to check the key and model.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.EmbedContent(ctx, []string{"ping"})
	return err
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewProvider_DefaultModel(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{APIKey: "key"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.ModelName())
	assert.NoError(t, p.Close())
}

func TestProvider_EmbedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.5,0.25]}]}`))
	}))
	defer server.Close()

	p, err := NewProvider(context.Background(), Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	raw, err := p.EmbedContent(context.Background(), []string{"flood"})

	require.NoError(t, err)
	assert.Contains(t, string(raw), "embeddings")
	assert.Contains(t, string(raw), "0.25")
}

func TestProvider_EmbedContent_QuotaIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	p, err := NewProvider(context.Background(), Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.EmbedContent(context.Background(), []string{"flood"})

	assert.ErrorIs(t, err, domain.ErrTransientAPI)
}

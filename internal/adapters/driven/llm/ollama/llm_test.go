package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

func TestLLMService_Generate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"[]","done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	out, err := svc.Generate(context.Background(), "pages", driven.GenerateOptions{
		SystemPrompt: "classify",
		JSON:         true,
		Temperature:  0.2,
	})

	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, DefaultLLMModel, got.Model)
	assert.Equal(t, "classify", got.System)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
}

func TestLLMService_Generate_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
		assert.ErrorIs(t, err, domain.ErrTransientAPI)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

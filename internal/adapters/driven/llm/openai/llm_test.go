package openai

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

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLLMService_Generate(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A summary."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "Summarise this.", driven.GenerateOptions{SystemPrompt: "You are an analyst."})

	require.NoError(t, err)
	assert.Equal(t, "A summary.", out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are an analyst.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Nil(t, got.ResponseFormat)
}

func TestLLMService_Generate_JSONArrayPrompt(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "Respond with a JSON array.", driven.GenerateOptions{JSON: true})

	require.NoError(t, err)
	assert.Nil(t, got.ResponseFormat)
	require.Len(t, got.Messages, 1)
}

func TestLLMService_Generate_Errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, domain.ErrTransientAPI},
		{"bad key", http.StatusUnauthorized, `{}`, domain.ErrConfiguration},
		{"no choices", http.StatusOK, `{"choices":[]}`, domain.ErrMalformedResponse},
		{"not json", http.StatusOK, `<html>`, domain.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = svc.Generate(context.Background(), "x", driven.GenerateOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

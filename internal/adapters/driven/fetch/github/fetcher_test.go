package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

func newTestFetcher(t *testing.T, token string, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f, err := New(context.Background(), Config{Token: token, BaseURL: server.URL})
	require.NoError(t, err)
	return f
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref  string
		want Location
	}{
		{"github://acme/policies/home/policy.pdf", Location{"acme", "policies", "home/policy.pdf", ""}},
		{"github://acme/policies/policy.txt@v1.2", Location{"acme", "policies", "policy.txt", "v1.2"}},
		{"GITHUB://acme/policies/a/b.pdf@main", Location{"acme", "policies", "a/b.pdf", "main"}},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, ref := range []string{"github://acme/policies", "github://acme", "gdrive://x", "acme/policies/p.pdf"} {
		_, err := ParseRef(ref)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, ref)
	}
}

func TestFetch_InlineContent(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("COVERAGE\n\nBuildings."))
	f := newTestFetcher(t, "ghp_test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/policies/contents/home/policy.txt", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"file","name":"policy.txt","path":"home/policy.txt","encoding":"base64","content":"` + content + `"}`))
	})

	path, cleanup, err := f.Fetch(context.Background(), "github://acme/policies/home/policy.txt@main")
	require.NoError(t, err)

	assert.Equal(t, "policy.txt", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "COVERAGE\n\nBuildings.", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_Directory(t *testing.T) {
	f := newTestFetcher(t, "", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"type":"file","name":"a.pdf","path":"docs/a.pdf"}]`))
	})

	_, _, err := f.Fetch(context.Background(), "github://acme/policies/docs")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetch_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.ErrConfiguration},
		{"server error", http.StatusBadGateway, domain.ErrTransientAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, "", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, cleanup, err := f.Fetch(context.Background(), "github://acme/policies/p.pdf")
			require.NotNil(t, cleanup)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

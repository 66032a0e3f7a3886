package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

func TestSupports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports("policy.txt"))
	assert.True(t, e.Supports("/a/b/POLICY.TXT"))
	assert.False(t, e.Supports("policy.pdf"))
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single page", "A.\n\nB.", []string{"A.\n\nB."}},
		{"form feeds", "One\fTwo\f", []string{"One", "Two"}},
		{"crlf form feeds", "One\r\nx\fTwo", []string{"One\nx", "Two"}},
		{
			"page markers",
			"--- PAGE 1 ---\nCoverage text.\n\n--- PAGE 2 ---\nExclusions text.\n",
			[]string{"Coverage text.", "Exclusions text."},
		},
		{
			"marker with preamble",
			"Title\n--- PAGE 2 ---\nBody",
			[]string{"Title", "Body"},
		},
		{"empty", "", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPages(tt.in))
		})
	}
}

func TestExtractAndPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Page one.\fPage two.\fPage three."), 0o600))
	e := New()

	pages, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Page one.", "Page two.", "Page three."}, pages)

	n, err := e.PageCount(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), "/nonexistent/policy.txt")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

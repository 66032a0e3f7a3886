package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".clausewise", "prompts"), store.Dir())
}

func TestPromptStore_Load_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSummarySystem)
	require.NoError(t, err)

	for _, name := range []string{
		driven.PromptSummarySystem,
		driven.PromptSummaryUser,
		driven.PromptPageAnalysisSystem,
		driven.PromptPageAnalysisUser,
	} {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, "expected prompt file for %s", name)
	}
}

func TestPromptStore_Load_Defaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptSummarySystem)
	require.NoError(t, err)
	assert.Contains(t, system, "at most 50 lines long")

	user, err := store.Load(driven.PromptSummaryUser)
	require.NoError(t, err)
	assert.Contains(t, user, "%s")

	pages, err := store.Load(driven.PromptPageAnalysisUser)
	require.NoError(t, err)
	assert.Contains(t, pages, "'Deductibles/Limits'")
}

func TestPromptStore_Load_CustomFile(t *testing.T) {
	dir := t.TempDir()
	custom := "Summarise briefly:\n\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary_user.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSummaryUser)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackWhenFileRemoved(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSummarySystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "summary_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptSummarySystem)

	require.NoError(t, err)
	want, _ := driven.DefaultPrompt(driven.PromptSummarySystem)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("rewrite_query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewrite_query")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptPageAnalysisSystem)
	require.NoError(t, err)

	path := filepath.Join(dir, "page_analysis_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))

	cached, err := store.Load(driven.PromptPageAnalysisSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptPageAnalysisSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("  keep me  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSummarySystem)
	require.NoError(t, err)
	assert.Equal(t, "keep me", prompt)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "  keep me  \n", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = store.Load(driven.PromptSummaryUser)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.NotEmpty(t, results[0])
}

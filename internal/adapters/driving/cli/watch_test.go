package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFilter(t *testing.T) {
	match := extensionFilter([]string{".PDF", "txt", " "})

	assert.True(t, match("/inbox/policy.pdf"))
	assert.True(t, match("/inbox/policy.Pdf"))
	assert.True(t, match("/inbox/notes.txt"))
	assert.False(t, match("/inbox/policy.docx"))
	assert.False(t, match("/inbox/README"))
}

func TestWatchCmd_NotADirectory(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	file := filepath.Join(t.TempDir(), "policy.pdf")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := executeCommand("watch", file)
	assert.Error(t, err)
}

func TestWatchCmd_DecodesNewFile(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchCmd.SetContext(ctx)
	defer watchCmd.SetContext(context.Background())

	done := make(chan struct{})
	var out string
	go func() {
		defer close(done)
		out, _ = executeCommand("watch", "--debounce", "20ms", dir)
	}()

	// Give the watcher time to register before the file appears.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(dir, "home.txt")
	require.NoError(t, os.WriteFile(path, []byte("Flood is covered."), 0o600))

	assert.Eventually(t, func() bool {
		return policy.decodedRef() == path
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
	assert.Contains(t, out, "home.txt: session s1 (2 clauses, index operational)")
}

package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/vectormath"
)

func entry(id string, page int, vec ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		ID:        id,
		Embedding: vec,
		Document:  "text of " + id,
		Metadata:  domain.EntryMetadata{PageNum: page},
	}
}

// liveBackend connects to the server named by CLAUSEWISE_TEST_REDIS_ADDR
// under a throwaway prefix, or skips.
func liveBackend(t *testing.T) *Backend {
	t.Helper()
	addr := os.Getenv("CLAUSEWISE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLAUSEWISE_TEST_REDIS_ADDR not set")
	}

	b, err := NewBackend(context.Background(), Config{Addr: addr, Prefix: "clausewise-test-" + uuid.NewString()})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestNew_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	b := New(client, "")
	defer b.Close()

	assert.Equal(t, "clausewise:collections", b.collectionsKey())
	assert.Equal(t, "clausewise:col:policy_a:ids", b.idsKey("policy_a"))
	assert.Equal(t, "clausewise:col:policy_a:entry:p1_c1", b.entryKey("policy_a", "p1_c1"))
}

func TestNewBackend_Unreachable(t *testing.T) {
	_, err := NewBackend(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGetOrCreateCollection_EmptyName(t *testing.T) {
	b := New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	defer b.Close()

	_, err := b.GetOrCreateCollection(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.IndexEntry
		wantErr error
	}{
		{"valid", []domain.IndexEntry{entry("p1_c1", 1, 1), entry("p1_c2", 1, 1)}, nil},
		{"empty", nil, nil},
		{"empty id", []domain.IndexEntry{entry("", 1, 1)}, domain.ErrInvalidInput},
		{"repeated", []domain.IndexEntry{entry("p1_c1", 1, 1), entry("p1_c1", 1, 1)}, domain.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBatch(tt.entries)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeEntry(t *testing.T) {
	fields := map[string]string{
		fieldDocument:  "Flood is excluded.",
		fieldPageNum:   "3",
		fieldEmbedding: string(vectormath.Encode([]float32{1, 0})),
	}

	m, sim, err := decodeEntry("p3_c1", fields, []float32{1, 0})

	require.NoError(t, err)
	assert.Equal(t, "p3_c1", m.ID)
	assert.Equal(t, "Flood is excluded.", m.Document)
	assert.Equal(t, 3, m.PageNum)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestDecodeEntry_Corrupt(t *testing.T) {
	_, _, err := decodeEntry("p1_c1", map[string]string{fieldPageNum: "x"}, []float32{1})
	assert.Error(t, err)

	_, _, err = decodeEntry("p1_c1", map[string]string{fieldPageNum: "1", fieldEmbedding: "abc"}, []float32{1})
	assert.Error(t, err)
}

func TestLive_AddQueryDelete(t *testing.T) {
	b := liveBackend(t)
	ctx := context.Background()

	c, err := b.GetOrCreateCollection(ctx, "policy_a")
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, []domain.IndexEntry{
		entry("p1_c1", 1, 0, 1),
		entry("p1_c2", 1, 1, 0),
	}))
	require.NoError(t, c.Add(ctx, []domain.IndexEntry{entry("p2_c1", 2, 1, 0)}))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	matches, err := c.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "p1_c2", matches[0].ID)
	assert.Equal(t, "p2_c1", matches[1].ID)
	assert.Equal(t, 2, matches[1].PageNum)

	err = c.Add(ctx, []domain.IndexEntry{entry("p3_c1", 3, 1), entry("p1_c1", 1, 1)})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	n, _ = c.Count(ctx)
	assert.Equal(t, 3, n)

	require.NoError(t, b.DeleteCollection(ctx, "policy_a"))
	n, err = c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

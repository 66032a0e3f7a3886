// Package redis provides a Redis-backed implementation of the vector backend port.
//
// Each collection is a list of entry IDs in insertion order plus one hash per
// entry holding the document, page number and little-endian float32 embedding.
// Similarity is computed in process, so no RediSearch module is required.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/vectormath"
)

const (
	// DefaultAddr is used when no address is configured.
	DefaultAddr = "localhost:6379"

	// DefaultPrefix namespaces every key written by the backend.
	DefaultPrefix = "clausewise"

	fieldDocument  = "document"
	fieldPageNum   = "page_num"
	fieldEmbedding = "embedding"

	// maxTxAttempts bounds optimistic-lock retries in Add.
	maxTxAttempts = 5

	connectTimeout = 5 * time.Second
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Backend implements driven.VectorBackend on Redis.
type Backend struct {
	client redis.UniversalClient
	prefix string
}

var _ driven.VectorBackend = (*Backend)(nil)

// NewBackend connects to Redis and verifies the connection.
func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %v", domain.ErrConfiguration, cfg.Addr, err)
	}

	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) collectionsKey() string {
	return b.prefix + ":collections"
}

func (b *Backend) idsKey(collection string) string {
	return b.prefix + ":col:" + collection + ":ids"
}

func (b *Backend) entryKey(collection, id string) string {
	return b.prefix + ":col:" + collection + ":entry:" + id
}

// GetOrCreateCollection returns the named collection, registering it if needed.
func (b *Backend) GetOrCreateCollection(ctx context.Context, name string) (driven.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	if err := b.client.SAdd(ctx, b.collectionsKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("registering collection: %w", err)
	}
	return &collection{backend: b, name: name}, nil
}

// DeleteCollection removes a collection and all its entries.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	ids, err := b.client.LRange(ctx, b.idsKey(name), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, b.entryKey(name, id))
	}
	keys = append(keys, b.idsKey(name))

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, b.collectionsKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Close closes the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

// collection implements driven.VectorCollection.
type collection struct {
	backend *Backend
	name    string
}

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Count returns the number of stored entries.
func (c *collection) Count(ctx context.Context) (int, error) {
	n, err := c.backend.client.LLen(ctx, c.backend.idsKey(c.name)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return int(n), nil
}

// Add stores entries in one MULTI/EXEC block, watching the ID list so a
// concurrent writer forces a retry.
func (c *collection) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if err := validateBatch(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	b := c.backend
	idsKey := b.idsKey(c.name)

	keys := entryKeys(b, c.name, entries)

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("checking entries: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: entries already stored in %s", domain.ErrAlreadyExists, c.name)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			ids := make([]any, len(entries))
			for i, e := range entries {
				pipe.HSet(ctx, keys[i],
					fieldDocument, e.Document,
					fieldPageNum, e.Metadata.PageNum,
					fieldEmbedding, vectormath.Encode(e.Embedding),
				)
				ids[i] = e.ID
			}
			pipe.RPush(ctx, idsKey, ids...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := b.client.Watch(ctx, txf, append([]string{idsKey}, keys...)...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return err
			}
			return fmt.Errorf("adding entries: %w", err)
		}
		return nil
	}
	return fmt.Errorf("adding entries: %w", redis.TxFailedErr)
}

// Query returns up to k entries ranked by cosine similarity to embedding.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.IndexMatch, error) {
	b := c.backend
	ids, err := b.client.LRange(ctx, b.idsKey(c.name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	if len(ids) == 0 {
		return []domain.IndexMatch{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, b.entryKey(c.name, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	matches := make([]domain.IndexMatch, len(ids))
	candidates := make([]vectormath.Candidate, len(ids))
	for i, cmd := range cmds {
		m, sim, err := decodeEntry(ids[i], cmd.Val(), embedding)
		if err != nil {
			return nil, err
		}
		matches[i] = m
		candidates[i] = vectormath.Candidate{Seq: i, Similarity: sim}
	}

	ranked := vectormath.TopK(candidates, k)
	out := make([]domain.IndexMatch, 0, len(ranked))
	for _, r := range ranked {
		m := matches[r.Seq]
		m.Similarity = r.Similarity
		out = append(out, m)
	}
	return out, nil
}

func decodeEntry(id string, fields map[string]string, query []float32) (domain.IndexMatch, float64, error) {
	page, err := strconv.Atoi(fields[fieldPageNum])
	if err != nil {
		return domain.IndexMatch{}, 0, fmt.Errorf("entry %s: bad page number %q", id, fields[fieldPageNum])
	}
	vec, err := vectormath.Decode([]byte(fields[fieldEmbedding]))
	if err != nil {
		return domain.IndexMatch{}, 0, fmt.Errorf("entry %s: %w", id, err)
	}
	m := domain.IndexMatch{
		ID:       id,
		Document: fields[fieldDocument],
		PageNum:  page,
	}
	return m, vectormath.Cosine(query, vec), nil
}

func validateBatch(entries []domain.IndexEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: entry %s repeated in batch", domain.ErrAlreadyExists, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func entryKeys(b *Backend, name string, entries []domain.IndexEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = b.entryKey(name, e.ID)
	}
	return keys
}

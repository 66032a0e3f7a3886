// Package elasticsearch provides an Elasticsearch-backed implementation of the
// vector backend port. Each collection maps to one index with a cosine
// dense_vector field; queries use approximate kNN search.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

const (
	// DefaultAddress is used when no address is configured.
	DefaultAddress = "http://localhost:9200"

	// DefaultIndexPrefix is prepended to every collection index name.
	DefaultIndexPrefix = "clausewise"

	// minNumCandidates is the lower bound for kNN num_candidates.
	minNumCandidates = 100
)

// Config holds cluster connection settings.
type Config struct {
	Addresses   []string
	Username    string
	Password    string
	IndexPrefix string

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Backend implements driven.VectorBackend on Elasticsearch.
type Backend struct {
	client *elasticsearch.Client
	prefix string

	mu      sync.Mutex
	created map[string]bool
}

var _ driven.VectorBackend = (*Backend)(nil)

// NewBackend creates a client for the configured cluster.
func NewBackend(cfg Config) (*Backend, error) {
	if len(cfg.Addresses) == 0 {
		cfg.Addresses = []string{DefaultAddress}
	}
	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = DefaultIndexPrefix
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating elasticsearch client: %v", domain.ErrConfiguration, err)
	}

	return &Backend{
		client:  client,
		prefix:  cfg.IndexPrefix,
		created: make(map[string]bool),
	}, nil
}

// indexName maps a collection to its index. Index names must be lowercase.
func (b *Backend) indexName(collection string) string {
	return strings.ToLower(b.prefix + "-" + collection)
}

// GetOrCreateCollection returns the named collection.
// The index itself is created on first Add, once the vector size is known.
func (b *Backend) GetOrCreateCollection(_ context.Context, name string) (driven.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	return &collection{backend: b, name: name, index: b.indexName(name)}, nil
}

// DeleteCollection removes the collection's index.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	index := b.indexName(name)
	res, err := b.client.Indices.Delete([]string{index},
		b.client.Indices.Delete.WithContext(ctx),
		b.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("deleting index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deleting index %s: %s", index, res.String())
	}

	b.mu.Lock()
	delete(b.created, index)
	b.mu.Unlock()
	return nil
}

// Close is a no-op; the client holds no persistent connections to release.
func (b *Backend) Close() error {
	return nil
}

// ensureIndex creates the index with a dense_vector mapping if it does not exist.
func (b *Backend) ensureIndex(ctx context.Context, index string, dims int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.created[index] {
		return nil
	}

	res, err := b.client.Indices.Exists([]string{index}, b.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("checking index %s: %w", index, err)
	}
	drain(res)

	if res.StatusCode == http.StatusOK {
		b.created[index] = true
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("checking index %s: unexpected status %d", index, res.StatusCode)
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"document": map[string]any{"type": "text"},
				"page_num": map[string]any{"type": "integer"},
				"seq":      map[string]any{"type": "integer"},
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	res, err = b.client.Indices.Create(index,
		b.client.Indices.Create.WithContext(ctx),
		b.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("creating index %s: %s", index, res.String())
	}

	b.created[index] = true
	return nil
}

// collection implements driven.VectorCollection.
type collection struct {
	backend *Backend
	name    string
	index   string
}

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Count returns the number of stored entries. A missing index counts as empty.
func (c *collection) Count(ctx context.Context) (int, error) {
	es := c.backend.client
	res, err := es.Count(es.Count.WithContext(ctx), es.Count.WithIndex(c.index))
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, fmt.Errorf("counting entries: %s", res.String())
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return out.Count, nil
}

type document struct {
	Document  string    `json:"document"`
	PageNum   int       `json:"page_num"`
	Seq       int       `json:"seq"`
	Embedding []float32 `json:"embedding"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string          `json:"_id"`
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error,omitempty"`
	} `json:"items"`
}

// Add stores entries with a single refreshing bulk request. IDs are checked
// up front; if the bulk still partially fails, created documents are removed.
func (c *collection) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if err := validateBatch(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	if err := c.backend.ensureIndex(ctx, c.index, len(entries[0].Embedding)); err != nil {
		return err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	existing, err := c.existingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: entries %s already stored in %s",
			domain.ErrAlreadyExists, strings.Join(existing, ", "), c.name)
	}

	next, err := c.Count(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, e := range entries {
		meta := map[string]any{"create": map[string]any{"_index": c.index, "_id": e.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		doc := document{
			Document:  e.Document,
			PageNum:   e.Metadata.PageNum,
			Seq:       next + i,
			Embedding: e.Embedding,
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	es := c.backend.client
	res, err := es.Bulk(&buf,
		es.Bulk.WithContext(ctx),
		es.Bulk.WithIndex(c.index),
		es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk indexing: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk indexing: %s", res.String())
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding bulk response: %w", err)
	}
	if !out.Errors {
		return nil
	}

	var created, failed []string
	conflict := false
	for _, item := range out.Items {
		for _, r := range item {
			switch {
			case r.Status == http.StatusConflict:
				conflict = true
				failed = append(failed, r.ID)
			case r.Status >= 300:
				failed = append(failed, r.ID)
			default:
				created = append(created, r.ID)
			}
		}
	}
	c.rollback(ctx, created)

	if conflict {
		return fmt.Errorf("%w: entries %s already stored in %s",
			domain.ErrAlreadyExists, strings.Join(failed, ", "), c.name)
	}
	return fmt.Errorf("bulk indexing failed for entries %s", strings.Join(failed, ", "))
}

// existingIDs returns which of ids are already stored.
func (c *collection) existingIDs(ctx context.Context, ids []string) ([]string, error) {
	body, err := json.Marshal(map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}

	es := c.backend.client
	res, err := es.Mget(bytes.NewReader(body),
		es.Mget.WithContext(ctx),
		es.Mget.WithIndex(c.index),
		es.Mget.WithSource("false"),
	)
	if err != nil {
		return nil, fmt.Errorf("checking entries: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("checking entries: %s", res.String())
	}

	var out struct {
		Docs []struct {
			ID    string `json:"_id"`
			Found bool   `json:"found"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding mget response: %w", err)
	}

	var found []string
	for _, d := range out.Docs {
		if d.Found {
			found = append(found, d.ID)
		}
	}
	return found, nil
}

// rollback removes documents created by a partially failed bulk. Best effort.
func (c *collection) rollback(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		_ = enc.Encode(map[string]any{"delete": map[string]any{"_index": c.index, "_id": id}})
	}

	es := c.backend.client
	res, err := es.Bulk(&buf, es.Bulk.WithContext(ctx), es.Bulk.WithRefresh("true"))
	if err != nil {
		return
	}
	drain(res)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Document string `json:"document"`
				PageNum  int    `json:"page_num"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query returns up to k entries by approximate kNN. Ordering follows the
// engine's ranking.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.IndexMatch, error) {
	if k <= 0 {
		return []domain.IndexMatch{}, nil
	}

	query := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   embedding,
			"k":              k,
			"num_candidates": max(minNumCandidates, k),
		},
		"_source": []string{"document", "page_num"},
		"size":    k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	es := c.backend.client
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(c.index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return []domain.IndexMatch{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("searching: %s", res.String())
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	matches := make([]domain.IndexMatch, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		matches = append(matches, domain.IndexMatch{
			ID:         h.ID,
			Document:   h.Source.Document,
			PageNum:    h.Source.PageNum,
			Similarity: scoreToCosine(h.Score),
		})
	}
	return matches, nil
}

// scoreToCosine inverts the cosine similarity score, (1 + cos) / 2.
func scoreToCosine(score float64) float64 {
	return 2*score - 1
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

// drain discards and closes a response body so the connection can be reused.
func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

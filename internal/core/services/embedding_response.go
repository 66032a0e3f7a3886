package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// embeddingPayload is the union of every response shape the gateway accepts.
// Each field is kept raw so parsers can decide what a field holds.
type embeddingPayload struct {
	Embedding  json.RawMessage   `json:"embedding"`
	Values     json.RawMessage   `json:"values"`
	Embeddings []json.RawMessage `json:"embeddings"`
	Data       []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`

	keys []string
}

// responseParser extracts vectors from one shape of payload.
// ok is false when the shape is absent; err is set when it is present but unusable.
type responseParser struct {
	name  string
	parse func(p *embeddingPayload) (vectors [][]float32, ok bool, err error)
}

// responseParsers are tried in order; the first present shape wins.
var responseParsers = []responseParser{
	{name: "embedding", parse: parseEmbeddingField},
	{name: "values", parse: parseValuesField},
	{name: "embeddings", parse: parseEmbeddingsList},
	{name: "data", parse: parseDataList},
}

// decodeEmbeddings normalises a raw provider payload into want vectors.
func decodeEmbeddings(raw json.RawMessage, want int) ([][]float32, error) {
	var p embeddingPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	p.keys = payloadKeys(raw)

	for _, parser := range responseParsers {
		vectors, ok, err := parser.parse(&p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s field: %w", domain.ErrMalformedResponse, parser.name, err)
		}
		if !ok {
			continue
		}
		if len(vectors) != want {
			return nil, fmt.Errorf("%w: %s field held %d vectors, expected %d",
				domain.ErrMalformedResponse, parser.name, len(vectors), want)
		}
		return vectors, nil
	}

	return nil, fmt.Errorf("%w: no embedding vectors found (response keys: %s)",
		domain.ErrMalformedResponse, strings.Join(p.keys, ", "))
}

// parseEmbeddingField handles a top-level "embedding" holding a vector,
// a list of vectors, or an object with "values".
func parseEmbeddingField(p *embeddingPayload) ([][]float32, bool, error) {
	if isAbsent(p.Embedding) {
		return nil, false, nil
	}
	if vectors, ok := decodeVectorOrList(p.Embedding); ok {
		return vectors, true, nil
	}

	var obj struct {
		Values []float32 `json:"values"`
	}
	if err := json.Unmarshal(p.Embedding, &obj); err == nil && len(obj.Values) > 0 {
		return [][]float32{obj.Values}, true, nil
	}
	return nil, false, fmt.Errorf("unrecognised value %s", preview(p.Embedding))
}

// parseValuesField handles a top-level "values" vector or list of vectors.
func parseValuesField(p *embeddingPayload) ([][]float32, bool, error) {
	if isAbsent(p.Values) {
		return nil, false, nil
	}
	if vectors, ok := decodeVectorOrList(p.Values); ok {
		return vectors, true, nil
	}
	return nil, false, fmt.Errorf("unrecognised value %s", preview(p.Values))
}

// parseEmbeddingsList handles "embeddings": [...] where each item is an
// object exposing values, value or embedding, or a bare vector.
func parseEmbeddingsList(p *embeddingPayload) ([][]float32, bool, error) {
	if p.Embeddings == nil {
		return nil, false, nil
	}

	vectors := make([][]float32, 0, len(p.Embeddings))
	for i, item := range p.Embeddings {
		v, err := decodeEmbeddingItem(item)
		if err != nil {
			return nil, false, fmt.Errorf("item %d: %w", i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, true, nil
}

// parseDataList handles the OpenAI-compatible "data" list, ordered by index.
func parseDataList(p *embeddingPayload) ([][]float32, bool, error) {
	if p.Data == nil {
		return nil, false, nil
	}

	vectors := make([][]float32, len(p.Data))
	for _, d := range p.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, false, fmt.Errorf("index %d out of range", d.Index)
		}
		if vectors[d.Index] != nil {
			return nil, false, fmt.Errorf("duplicate index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, true, nil
}

// decodeEmbeddingItem probes one list item in priority order.
func decodeEmbeddingItem(item json.RawMessage) ([]float32, error) {
	var bare []float32
	if err := json.Unmarshal(item, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	var obj struct {
		Values    []float32 `json:"values"`
		Value     []float32 `json:"value"`
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(item, &obj); err != nil {
		return nil, fmt.Errorf("unrecognised value %s", preview(item))
	}
	switch {
	case len(obj.Values) > 0:
		return obj.Values, nil
	case len(obj.Value) > 0:
		return obj.Value, nil
	case len(obj.Embedding) > 0:
		return obj.Embedding, nil
	default:
		return nil, fmt.Errorf("no values, value or embedding in %s", preview(item))
	}
}

// decodeVectorOrList accepts [f, f, ...] or [[f, ...], [f, ...]].
func decodeVectorOrList(raw json.RawMessage) ([][]float32, bool) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return [][]float32{flat}, true
	}
	var list [][]float32
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		for _, v := range list {
			if len(v) == 0 {
				return nil, false
			}
		}
		return list, true
	}
	return nil, false
}

// isAbsent reports whether a raw field was missing or null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// payloadKeys lists the top-level keys of an object payload for error messages.
func payloadKeys(raw json.RawMessage) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// preview truncates raw JSON for error messages.
func preview(raw json.RawMessage) string {
	const limit = 60
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Package vectormath holds the similarity ranking and vector encoding
// shared by the vector backends that score entries in process.
package vectormath

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate is an entry being ranked. Seq is its insertion position.
type Candidate struct {
	Seq        int
	Similarity float64
}

// TopK orders candidates by descending similarity, breaking exact ties by
// ascending Seq, and returns at most k of them.
func TopK(candidates []Candidate, k int) []Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].Seq < ranked[j].Seq
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Encode converts a float32 slice to a little-endian byte slice.
func Encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a little-endian byte slice back to float32 values.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

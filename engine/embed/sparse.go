package embed

import (
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
)

// SparseVectorDims bounds the hashing-trick index space.
const SparseVectorDims = 1 << 18

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_'-]*`)

// SparseVector computes a deterministic term-frequency sparse vector over
// the hashing trick: each token hashes into [0, SparseVectorDims) and
// accumulates a count, normalized by total token count. Independent of any
// LLM or external service, so hybrid search degrades to keyword overlap
// rather than failing outright when the dense embedder is unavailable.
func SparseVector(text string) (indices []uint32, values []float32) {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil, nil
	}

	counts := make(map[uint32]int, len(tokens))
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		idx := h.Sum32() % SparseVectorDims
		counts[idx]++
	}

	indices = make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values = make([]float32, len(indices))
	total := float32(len(tokens))
	for i, idx := range indices {
		values[i] = float32(counts[idx]) / total
	}
	return indices, values
}

// Package vector is the sole owner of Qdrant operations: collection
// lifecycle, named dense+sparse upserts, and raw k-NN search. Fusion across
// the two vector spaces lives one layer up, in engine/search.
package vector

// Collection names, one per spec §3 entity family.
const (
	CollectionCaptures     = "captures"
	CollectionMemoryChunks = "memory_chunks"
)

// Hit is a single similarity search result from one named vector.
type Hit struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// Record is one point to upsert: a dense vector, a sparse vector, and a
// flat string payload (caller is responsible for truncating chunk_text per
// domain.PayloadChunkTextLimit before calling Upsert).
type Record struct {
	ID           string
	Dense        []float32
	SparseIdx    []uint32
	SparseValues []float32
	Payload      map[string]string
}

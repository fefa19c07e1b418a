// Package embed turns chunk text into the dense+sparse vector pair the
// vector store indexes under. Dense embeddings come from a pluggable
// Embedder (an Ollama-HTTP client by default); sparse vectors are produced
// deterministically by a hashing-trick term weigher so search never depends
// entirely on the LLM backend being reachable.
package embed

import (
	"context"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// Embedder turns text into a fixed-dimension dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Service combines a dense Embedder with the deterministic sparse weigher
// to produce a full domain.Embedding per chunk.
type Service struct {
	dense Embedder
}

// New creates an embedding Service backed by dense.
func New(dense Embedder) *Service {
	return &Service{dense: dense}
}

// Embed computes the dense+sparse pair for one piece of text.
func (s *Service) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	dense, err := s.dense.Embed(ctx, text)
	if err != nil {
		return domain.Embedding{}, err
	}
	idx, vals := SparseVector(text)
	return domain.Embedding{Dense: dense, SparseIdx: idx, SparseValues: vals}, nil
}

// EmbedBatch computes the dense+sparse pair for each text, preserving order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	denseAll, err := s.dense.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		idx, vals := SparseVector(text)
		out[i] = domain.Embedding{Dense: denseAll[i], SparseIdx: idx, SparseValues: vals}
	}
	return out, nil
}

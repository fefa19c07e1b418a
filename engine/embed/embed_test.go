package embed

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	dim     int
	failErr error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func TestService_Embed(t *testing.T) {
	svc := New(&fakeEmbedder{dim: 384})
	emb, err := svc.Embed(context.Background(), "standup notes with alice about project X")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb.Dense) != 384 {
		t.Errorf("expected dense dim 384, got %d", len(emb.Dense))
	}
	if len(emb.SparseIdx) == 0 {
		t.Error("expected non-empty sparse vector")
	}
}

func TestService_Embed_PropagatesError(t *testing.T) {
	svc := New(&fakeEmbedder{failErr: errors.New("backend down")})
	if _, err := svc.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestService_EmbedBatch_PreservesOrder(t *testing.T) {
	svc := New(&fakeEmbedder{dim: 8})
	embs, err := svc.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(embs) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embs))
	}
	for i, e := range embs {
		if len(e.Dense) != 8 {
			t.Errorf("embs[%d]: expected dense dim 8, got %d", i, len(e.Dense))
		}
	}
}

func TestSparseVector_Deterministic(t *testing.T) {
	idx1, vals1 := SparseVector("the quick brown fox jumps")
	idx2, vals2 := SparseVector("the quick brown fox jumps")
	if len(idx1) != len(idx2) {
		t.Fatalf("expected deterministic length, got %d vs %d", len(idx1), len(idx2))
	}
	for i := range idx1 {
		if idx1[i] != idx2[i] || vals1[i] != vals2[i] {
			t.Fatalf("expected deterministic output, mismatch at %d", i)
		}
	}
}

func TestSparseVector_Empty(t *testing.T) {
	idx, vals := SparseVector("   ")
	if idx != nil || vals != nil {
		t.Errorf("expected nil for empty text, got idx=%v vals=%v", idx, vals)
	}
}

func TestSparseVector_RepeatedTermsWeighHigher(t *testing.T) {
	idx, vals := SparseVector("alpha alpha alpha beta")
	sum := map[uint32]float32{}
	for i, id := range idx {
		sum[id] = vals[i]
	}
	// alpha appears 3x, beta 1x out of 4 tokens.
	var maxWeight float32
	for _, v := range sum {
		if v > maxWeight {
			maxWeight = v
		}
	}
	if maxWeight < 0.5 {
		t.Errorf("expected a dominant term weight >= 0.5, got %v", maxWeight)
	}
}

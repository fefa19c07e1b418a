package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/embed"
)

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, f.dim)
	if len(text) > 0 {
		v[0] = 1
	}
	return v, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := f.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func TestValidate_RejectsEmptyText(t *testing.T) {
	r := Validate(context.Background(), Item{ID: "x", Collection: "captures", Text: "  "})
	if !r.IsErr() {
		t.Fatal("expected error for empty text")
	}
}

func TestValidate_RejectsMissingCollection(t *testing.T) {
	r := Validate(context.Background(), Item{ID: "x", Text: "hello"})
	if !r.IsErr() {
		t.Fatal("expected error for missing collection")
	}
}

func TestValidate_AcceptsWellFormedItem(t *testing.T) {
	r := Validate(context.Background(), Item{ID: "x", Collection: "captures", Text: "hello"})
	if r.IsErr() {
		t.Fatalf("expected ok, got error")
	}
}

func TestChunk_SplitsText(t *testing.T) {
	text := strings.Repeat("This is a sentence about the launch plan. ", 60)
	r := Chunk(context.Background(), Item{ID: "x", ConversationID: "c1", Source: "claude", Title: "t", Text: text})
	if r.IsErr() {
		t.Fatalf("expected ok")
	}
	chunks, _ := r.Unwrap()
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
}

func TestNewEmbedAndTag_ProducesVectorPoints(t *testing.T) {
	svc := embed.New(fakeEmbedder{dim: domain.DenseDim})
	it := Item{ID: "item-1", ConversationID: "conv-1", CaptureID: "cap-1", Collection: "memory_chunks", Source: "claude", Title: "Planning"}
	chunks := []domain.Chunk{
		{ConversationID: "conv-1", Source: "claude", Title: "Planning", ChunkText: "We decided to ship on Friday.", ChunkIndex: 0, TotalChunks: 1},
	}

	stage := NewEmbedAndTag(svc)
	r := stage(context.Background(), taggedChunks{item: it, chunks: chunks})
	if r.IsErr() {
		t.Fatalf("expected ok")
	}
	points, _ := r.Unwrap()
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	p := points[0]
	if p.CaptureID != "cap-1" || p.ConversationID != "conv-1" {
		t.Errorf("expected item IDs carried through, got %+v", p)
	}
	if len(p.Embedding.Dense) != domain.DenseDim {
		t.Errorf("expected dense dim %d, got %d", domain.DenseDim, len(p.Embedding.Dense))
	}
	if len(p.Embedding.SparseIdx) == 0 {
		t.Error("expected sparse vector to be populated")
	}
}

func TestPointID_Deterministic(t *testing.T) {
	it := Item{ID: "item-1"}
	a := pointID(it, 2)
	b := pointID(it, 2)
	c := pointID(it, 3)
	if a != b {
		t.Error("expected same item+index to produce same point ID")
	}
	if a == c {
		t.Error("expected different chunk index to produce different point ID")
	}
}

func TestToPayload_IncludesTags(t *testing.T) {
	p := domain.VectorPoint{
		Source:     "claude",
		Title:      "Planning",
		ChunkText:  "hello",
		ChunkIndex: 0,
		ChunkTags:  domain.ChunkTags{People: []string{"Sarah"}, Sentiment: domain.SentimentPositive},
	}
	payload := toPayload(p)
	if payload["people"] != "Sarah" {
		t.Errorf("expected people in payload, got %q", payload["people"])
	}
	if payload["sentiment"] != string(domain.SentimentPositive) {
		t.Errorf("expected sentiment in payload, got %q", payload["sentiment"])
	}
}

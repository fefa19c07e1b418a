package search

import (
	"context"
	"testing"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

type fakeStore struct {
	dense  []vector.Hit
	sparse []vector.Hit
}

func (f *fakeStore) SearchDense(_ context.Context, _ string, _ []float32, _ int, _ map[string]string) ([]vector.Hit, error) {
	return f.dense, nil
}

func (f *fakeStore) SearchSparse(_ context.Context, _ string, _ []uint32, _ []float32, _ int, _ map[string]string) ([]vector.Hit, error) {
	return f.sparse, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) (domain.Embedding, error) {
	return domain.Embedding{Dense: []float32{1, 0}, SparseIdx: []uint32{1}, SparseValues: []float32{1}}, nil
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	e := New(&fakeStore{}, fakeEmbedder{}, "memory_chunks")
	if _, err := e.Search(context.Background(), "", 10, Filter{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearch_FusesDenseAndSparse(t *testing.T) {
	dense := []vector.Hit{
		{ID: "a", Score: 0.9, Payload: map[string]string{"source": "claude"}},
		{ID: "b", Score: 0.8, Payload: map[string]string{"source": "chatgpt"}},
	}
	sparse := []vector.Hit{
		{ID: "b", Score: 0.95, Payload: map[string]string{"source": "chatgpt"}},
		{ID: "c", Score: 0.5, Payload: map[string]string{"source": "claude"}},
	}
	e := New(&fakeStore{dense: dense, sparse: sparse}, fakeEmbedder{}, "memory_chunks")

	results, err := e.Search(context.Background(), "standup notes", 10, Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(results))
	}
	// "b" appears in both lists at rank 0/1 so should outrank single-list hits.
	if results[0].ID != "b" {
		t.Errorf("expected b to rank first, got %s", results[0].ID)
	}
}

func TestSearch_RespectsLimit(t *testing.T) {
	dense := []vector.Hit{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	e := New(&fakeStore{dense: dense}, fakeEmbedder{}, "memory_chunks")

	results, err := e.Search(context.Background(), "query", 2, Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestSearch_MultiSourcePostFilter(t *testing.T) {
	dense := []vector.Hit{
		{ID: "a", Payload: map[string]string{"source": "claude"}},
		{ID: "b", Payload: map[string]string{"source": "chatgpt"}},
		{ID: "c", Payload: map[string]string{"source": "grok"}},
	}
	e := New(&fakeStore{dense: dense}, fakeEmbedder{}, "memory_chunks")

	results, err := e.Search(context.Background(), "query", 10, Filter{Sources: []string{"claude", "grok"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after source filter, got %d", len(results))
	}
}

func TestSearch_DateRangePostFilter(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -1, 0)
	dense := []vector.Hit{
		{ID: "recent", Payload: map[string]string{"timestamp": now.Format(time.RFC3339)}},
		{ID: "stale", Payload: map[string]string{"timestamp": old.Format(time.RFC3339)}},
	}
	e := New(&fakeStore{dense: dense}, fakeEmbedder{}, "memory_chunks")

	start := now.AddDate(0, 0, -7)
	results, err := e.Search(context.Background(), "query", 10, Filter{StartDate: &start})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "recent" {
		t.Fatalf("expected only 'recent' to survive date filter, got %v", results)
	}
}

func TestFuse_TieBrokenByRawScoreThenID(t *testing.T) {
	list1 := []vector.Hit{{ID: "x", Score: 0.1}}
	list2 := []vector.Hit{{ID: "y", Score: 0.9}}
	fused := fuse(list1, list2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	// Equal RRF contribution (both rank 0 in their own list) -> tie broken by raw score.
	if fused[0].hit.ID != "y" {
		t.Errorf("expected y to win tie via higher raw score, got %s", fused[0].hit.ID)
	}
}

package vector

import "testing"

func TestFieldMatch(t *testing.T) {
	cond := fieldMatch("source", "claude")
	fc := cond.GetField()
	if fc == nil {
		t.Fatal("expected field condition")
	}
	if fc.Key != "source" {
		t.Fatalf("expected key=source, got %s", fc.Key)
	}
	if fc.Match.GetKeyword() != "claude" {
		t.Fatalf("expected keyword=claude, got %s", fc.Match.GetKeyword())
	}
}

func TestRecordFields(t *testing.T) {
	r := Record{
		ID:           "uuid-1",
		Dense:        []float32{0.1, 0.2, 0.3},
		SparseIdx:    []uint32{4, 9},
		SparseValues: []float32{0.5, 0.25},
		Payload:      map[string]string{"source": "claude"},
	}
	if len(r.Dense) != 3 {
		t.Errorf("expected 3 dense dims, got %d", len(r.Dense))
	}
	if len(r.SparseIdx) != len(r.SparseValues) {
		t.Errorf("sparse indices/values length mismatch: %d vs %d", len(r.SparseIdx), len(r.SparseValues))
	}
	if r.Payload["source"] != "claude" {
		t.Errorf("payload mismatch: %v", r.Payload)
	}
}

func TestHitFields(t *testing.T) {
	h := Hit{ID: "id1", Score: 0.92, Payload: map[string]string{"title": "standup notes"}}
	if h.ID != "id1" || h.Score != 0.92 {
		t.Error("field mismatch")
	}
	if h.Payload["title"] != "standup notes" {
		t.Error("payload mismatch")
	}
}

func TestCollectionNames(t *testing.T) {
	if CollectionCaptures != "captures" {
		t.Errorf("unexpected CollectionCaptures: %s", CollectionCaptures)
	}
	if CollectionMemoryChunks != "memory_chunks" {
		t.Errorf("unexpected CollectionMemoryChunks: %s", CollectionMemoryChunks)
	}
}

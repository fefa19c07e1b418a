package enrich

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jarvis-ai/jarvis/engine/llm"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

type fakeScroller struct {
	pages [][]vector.Hit
}

func (f *fakeScroller) Scroll(_ context.Context, _ string, _ int, offset string) (vector.ScrollPage, error) {
	idx := 0
	if offset != "" {
		var err error
		idx, err = parseOffset(offset)
		if err != nil {
			return vector.ScrollPage{}, err
		}
	}
	if idx >= len(f.pages) {
		return vector.ScrollPage{}, nil
	}
	next := ""
	if idx+1 < len(f.pages) {
		next = formatOffset(idx + 1)
	}
	return vector.ScrollPage{Hits: f.pages[idx], NextOffset: next}, nil
}

func parseOffset(s string) (int, error) {
	return strconv.Atoi(s)
}

func formatOffset(n int) string {
	return strconv.Itoa(n)
}

func TestPeopleGraph_AggregatesAcrossPages(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -2).Format(time.RFC3339)

	scroller := &fakeScroller{pages: [][]vector.Hit{
		{{ID: "a", Payload: map[string]string{"people": "Sarah Connor", "conversation_id": "c1", "conversation_date": recent}}},
		{{ID: "b", Payload: map[string]string{"people": "Sarah Connor, John Smith", "conversation_id": "c2", "conversation_date": recent}}},
	}}

	result, err := PeopleGraph(context.Background(), scroller, "memory_chunks", llm.HeuristicEntityClassifier{}, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.People) != 1 {
		t.Fatalf("expected 1 person meeting min frequency, got %d: %+v", len(result.People), result.People)
	}
	if result.People[0].Name != "Sarah Connor" {
		t.Errorf("expected Sarah Connor, got %s", result.People[0].Name)
	}
	if result.People[0].Status != statusActive {
		t.Errorf("expected active status, got %s", result.People[0].Status)
	}
}

func TestPeopleGraph_UnknownStatusWithNoDates(t *testing.T) {
	now := time.Now()
	scroller := &fakeScroller{pages: [][]vector.Hit{
		{{ID: "a", Payload: map[string]string{"people": "Jane Doe"}}},
		{{ID: "b", Payload: map[string]string{"people": "Jane Doe"}}},
	}}
	result, err := PeopleGraph(context.Background(), scroller, "memory_chunks", llm.HeuristicEntityClassifier{}, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.People) != 1 || result.People[0].Status != statusUnknown {
		t.Fatalf("expected unknown status for person with no dates, got %+v", result.People)
	}
}

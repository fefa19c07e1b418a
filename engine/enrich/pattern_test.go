package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

func TestDetectHeuristic_UnfinishedBusiness(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -45).Format(time.RFC3339)

	hits := make([]vector.Hit, 0, 12)
	for i := 0; i < 12; i++ {
		hits = append(hits, vector.Hit{ID: "x", Payload: map[string]string{"topics": "migration", "timestamp": old, "conversation_id": "c1"}})
	}
	scroller := &fakeScroller{pages: [][]vector.Hit{hits}}

	patterns, err := DetectHeuristic(context.Background(), scroller, "memory_chunks", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 || patterns[0].PatternType != domain.PatternUnfinishedBusiness {
		t.Fatalf("expected 1 unfinished_business pattern, got %+v", patterns)
	}
	if patterns[0].Frequency != 12 {
		t.Errorf("expected frequency 12, got %d", patterns[0].Frequency)
	}
}

func TestDetectHeuristic_RecentTopicNotFlagged(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -2).Format(time.RFC3339)

	hits := make([]vector.Hit, 0, 12)
	for i := 0; i < 12; i++ {
		hits = append(hits, vector.Hit{ID: "x", Payload: map[string]string{"topics": "migration", "timestamp": recent}})
	}
	scroller := &fakeScroller{pages: [][]vector.Hit{hits}}

	patterns, err := DetectHeuristic(context.Background(), scroller, "memory_chunks", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns for recently-mentioned topic, got %+v", patterns)
	}
}

func TestDetectHeuristic_BrokenPromise(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -10).Format(time.RFC3339)

	scroller := &fakeScroller{pages: [][]vector.Hit{
		{{ID: "a", Payload: map[string]string{"action_items": "I need to send the report", "timestamp": old, "conversation_id": "c1"}}},
	}}

	patterns, err := DetectHeuristic(context.Background(), scroller, "memory_chunks", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 || patterns[0].PatternType != domain.PatternBrokenPromise {
		t.Fatalf("expected 1 broken_promise pattern, got %+v", patterns)
	}
}

func TestDetectHeuristic_RecentPromiseNotFlagged(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -1).Format(time.RFC3339)

	scroller := &fakeScroller{pages: [][]vector.Hit{
		{{ID: "a", Payload: map[string]string{"action_items": "I need to send the report", "timestamp": recent}}},
	}}

	patterns, err := DetectHeuristic(context.Background(), scroller, "memory_chunks", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns for recent promise, got %+v", patterns)
	}
}

type fakeLLMClient struct {
	response string
	err      error
}

func (f fakeLLMClient) Complete(_ context.Context, _ string, _ int) (string, error) {
	return f.response, f.err
}

func TestDetectLLM_ParsesAndFiltersByConfidence(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	client := fakeLLMClient{response: "```json\n[{\"pattern_type\":\"recurring_theme\",\"pattern_key\":\"k1\",\"description\":\"d\",\"confidence\":0.8,\"conversation_ids\":[\"c1\"]},{\"pattern_type\":\"work_rhythm\",\"pattern_key\":\"k2\",\"description\":\"d2\",\"confidence\":0.1,\"conversation_ids\":[]}]\n```"}

	patterns, err := DetectLLM(context.Background(), client, LLMInput{}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern after confidence filter, got %d: %+v", len(patterns), patterns)
	}
	if patterns[0].Frequency != 8 {
		t.Errorf("expected frequency round(0.8*10)=8, got %d", patterns[0].Frequency)
	}
}

func TestDetectLLM_NilClientReturnsNilWithoutError(t *testing.T) {
	patterns, err := DetectLLM(context.Background(), nil, LLMInput{}, time.Now())
	if err != nil || patterns != nil {
		t.Fatalf("expected nil, nil for nil client, got %+v, %v", patterns, err)
	}
}

func TestDetectLLM_MalformedJSONReturnsEmptyNotError(t *testing.T) {
	client := fakeLLMClient{response: "not json at all"}
	patterns, err := DetectLLM(context.Background(), client, LLMInput{}, time.Now())
	if err != nil {
		t.Fatalf("expected safe-default nil error, got %v", err)
	}
	if patterns != nil {
		t.Fatalf("expected nil patterns on parse failure, got %+v", patterns)
	}
}

type fakePatternStore struct {
	dismissedKey string
	inserted     []domain.DetectedPattern
	err          error
}

func (f *fakePatternStore) ReplaceActive(_ context.Context, detectorKey string, patterns []domain.DetectedPattern) error {
	if f.err != nil {
		return f.err
	}
	f.dismissedKey = detectorKey
	f.inserted = patterns
	return nil
}

func TestDetectAndReplace_PropagatesToStore(t *testing.T) {
	store := &fakePatternStore{}
	want := []domain.DetectedPattern{{PatternKey: "p1"}}
	got, err := DetectAndReplace(context.Background(), store, "unfinished_business", func(context.Context) ([]domain.DetectedPattern, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || store.dismissedKey != "unfinished_business" || len(store.inserted) != 1 {
		t.Fatalf("expected store to receive the detected cohort, got %+v", store)
	}
}

func TestDetectAndReplace_DetectErrorShortCircuits(t *testing.T) {
	store := &fakePatternStore{}
	boom := errors.New("boom")
	_, err := DetectAndReplace(context.Background(), store, "k", func(context.Context) ([]domain.DetectedPattern, error) {
		return nil, boom
	})
	if err != boom {
		t.Fatalf("expected detect error to propagate, got %v", err)
	}
	if store.dismissedKey != "" {
		t.Fatalf("expected store not to be called when detect fails")
	}
}

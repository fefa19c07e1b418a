package llm

import (
	"context"
	"testing"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

func TestHeuristicEntityClassifier_PersonShapedName(t *testing.T) {
	c := HeuristicEntityClassifier{}
	out, err := c.ClassifyEntities(context.Background(), []string{"Sarah Connor", "budget"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["Sarah Connor"] != domain.EntityPerson {
		t.Errorf("expected Sarah Connor classified PERSON, got %s", out["Sarah Connor"])
	}
	if out["budget"] != domain.EntityNoise {
		t.Errorf("expected lowercase word classified NOISE, got %s", out["budget"])
	}
}

type failingClassifier struct{}

func (failingClassifier) ClassifyEntities(_ context.Context, _ []string) (map[string]domain.EntityType, error) {
	return nil, context.DeadlineExceeded
}

func TestClassifyInBatches_NilClassifierReturnsNoise(t *testing.T) {
	out := ClassifyInBatches(context.Background(), nil, []string{"Alice", "Bob"})
	for name, cls := range out {
		if cls != domain.EntityNoise {
			t.Errorf("expected %s classified NOISE with nil classifier, got %s", name, cls)
		}
	}
}

func TestClassifyInBatches_FailureFallsBackToNoise(t *testing.T) {
	out := ClassifyInBatches(context.Background(), failingClassifier{}, []string{"Alice"})
	if out["Alice"] != domain.EntityNoise {
		t.Errorf("expected NOISE on classifier failure, got %s", out["Alice"])
	}
}

func TestClassifyInBatches_DeduplicatesAcrossBatches(t *testing.T) {
	names := make([]string, EntityBatchSize+10)
	for i := range names {
		names[i] = "Name"
	}
	out := ClassifyInBatches(context.Background(), HeuristicEntityClassifier{}, names)
	if len(out) != 1 {
		t.Fatalf("expected deduplication by map key, got %d entries", len(out))
	}
}

package llm

import (
	"context"
	"regexp"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// EntityClassifier labels candidate entity names (people, projects, tools,
// companies) pulled out of chunk tags. Per the adapter contract, a classifier
// that cannot parse its own model's response returns every name as NOISE
// rather than surfacing an error to the caller.
type EntityClassifier interface {
	ClassifyEntities(ctx context.Context, names []string) (map[string]domain.EntityType, error)
}

// EntityBatchSize is the number of names sent to the classifier per call.
const EntityBatchSize = 50

var personNamePattern = regexp.MustCompile(`^[A-Z][a-z]+(\s[A-Z][a-z]+)?$`)

// HeuristicEntityClassifier is a deterministic fallback used when no model
// is configured: names that look like "Firstname" or "Firstname Lastname"
// are classified PERSON, everything else NOISE.
type HeuristicEntityClassifier struct{}

// ClassifyEntities never errors.
func (HeuristicEntityClassifier) ClassifyEntities(_ context.Context, names []string) (map[string]domain.EntityType, error) {
	out := make(map[string]domain.EntityType, len(names))
	for _, name := range names {
		if personNamePattern.MatchString(name) {
			out[name] = domain.EntityPerson
		} else {
			out[name] = domain.EntityNoise
		}
	}
	return out, nil
}

// ClassifyInBatches calls classifier in chunks of EntityBatchSize, merging
// the results. If classifier is nil, every name is classified NOISE.
func ClassifyInBatches(ctx context.Context, classifier EntityClassifier, names []string) map[string]domain.EntityType {
	out := make(map[string]domain.EntityType, len(names))
	if classifier == nil {
		for _, n := range names {
			out[n] = domain.EntityNoise
		}
		return out
	}
	for i := 0; i < len(names); i += EntityBatchSize {
		end := i + EntityBatchSize
		if end > len(names) {
			end = len(names)
		}
		batch, err := classifier.ClassifyEntities(ctx, names[i:end])
		if err != nil {
			for _, n := range names[i:end] {
				out[n] = domain.EntityNoise
			}
			continue
		}
		for _, n := range names[i:end] {
			if t, ok := batch[n]; ok {
				out[n] = t
			} else {
				out[n] = domain.EntityNoise
			}
		}
	}
	return out
}

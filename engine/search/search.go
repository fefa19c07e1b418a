// Package search implements the hybrid retrieval engine: embed the query,
// prefetch dense and sparse candidates from the vector store, and fuse them
// with Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/embed"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

// rrfK is the Reciprocal Rank Fusion constant.
const rrfK = 60

// prefetchMultiplier and prefetchCap bound how many candidates each
// prefetch pulls before fusion trims to the caller's limit.
const (
	prefetchMultiplier = 5
	prefetchCap        = 50
)

// Filter narrows a search by optional time range and source list.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Sources   []string // empty means no filter
}

// Result is one ranked hit returned to callers.
type Result struct {
	ID          string
	Score       float64
	TextPreview string
	Timestamp   time.Time
	Source      string
	FilePath    string
	Title       string
	Payload     map[string]string
}

// VectorStore is the subset of engine/vector.Store the search engine needs.
type VectorStore interface {
	SearchDense(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]string) ([]vector.Hit, error)
	SearchSparse(ctx context.Context, collection string, indices []uint32, values []float32, topK int, filters map[string]string) ([]vector.Hit, error)
}

// Embedder turns a query string into a dense+sparse pair.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.Embedding, error)
}

// Engine runs hybrid search against one collection.
type Engine struct {
	store      VectorStore
	embedder   Embedder
	collection string
}

// New creates a hybrid search Engine over collection.
func New(store VectorStore, embedder Embedder, collection string) *Engine {
	return &Engine{store: store, embedder: embedder, collection: collection}
}

var errEmptyQuery = fmt.Errorf("search: query must not be empty")

// Search embeds query, prefetches dense and sparse candidates, and returns
// the top `limit` results fused by Reciprocal Rank Fusion.
func (e *Engine) Search(ctx context.Context, query string, limit int, filter Filter) ([]Result, error) {
	if query == "" {
		return nil, errEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	emb, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	prefetchLimit := limit * prefetchMultiplier
	if prefetchLimit > prefetchCap {
		prefetchLimit = prefetchCap
	}

	filters := buildFilter(filter)

	denseHits, err := e.store.SearchDense(ctx, e.collection, emb.Dense, prefetchLimit, filters)
	if err != nil {
		return nil, fmt.Errorf("search: dense prefetch: %w", err)
	}
	sparseHits, err := e.store.SearchSparse(ctx, e.collection, emb.SparseIdx, emb.SparseValues, prefetchLimit, filters)
	if err != nil {
		return nil, fmt.Errorf("search: sparse prefetch: %w", err)
	}

	fused := fuse(denseHits, sparseHits)
	fused = applyPostFilter(fused, filter)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	out := make([]Result, len(fused))
	for i, f := range fused {
		out[i] = toResult(f)
	}
	return out, nil
}

// buildFilter constructs the store-level keyword filter. The underlying
// store only supports single-value keyword match, so a single source is
// pushed down; multi-source match-any and the date range are applied as a
// post-filter over the fused candidates instead.
func buildFilter(f Filter) map[string]string {
	if len(f.Sources) == 1 {
		return map[string]string{"source": f.Sources[0]}
	}
	return nil
}

func applyPostFilter(candidates []fusedCandidate, f Filter) []fusedCandidate {
	if len(f.Sources) <= 1 && f.StartDate == nil && f.EndDate == nil {
		return candidates
	}
	sourceSet := make(map[string]bool, len(f.Sources))
	for _, s := range f.Sources {
		sourceSet[s] = true
	}

	out := candidates[:0]
	for _, c := range candidates {
		if len(sourceSet) > 0 && !sourceSet[c.hit.Payload["source"]] {
			continue
		}
		if f.StartDate != nil || f.EndDate != nil {
			ts, ok := parseTimestamp(c.hit.Payload["timestamp"])
			if !ok {
				continue
			}
			if f.StartDate != nil && ts.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && ts.After(*f.EndDate) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func parseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}

type fusedCandidate struct {
	hit      vector.Hit
	rrfScore float64
	rawSum   float32
}

// fuse combines dense and sparse candidate lists with Reciprocal Rank
// Fusion: score = Σ 1/(k + rank), ties broken by summed raw score then id.
func fuse(lists ...[]vector.Hit) []fusedCandidate {
	byID := make(map[string]*fusedCandidate)
	var order []string

	for _, list := range lists {
		for rank, h := range list {
			c, ok := byID[h.ID]
			if !ok {
				c = &fusedCandidate{hit: h}
				byID[h.ID] = c
				order = append(order, h.ID)
			}
			c.rrfScore += 1.0 / float64(rrfK+rank+1)
			c.rawSum += h.Score
		}
	}

	out := make([]fusedCandidate, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].rrfScore != out[j].rrfScore {
			return out[i].rrfScore > out[j].rrfScore
		}
		if out[i].rawSum != out[j].rawSum {
			return out[i].rawSum > out[j].rawSum
		}
		return out[i].hit.ID < out[j].hit.ID
	})
	return out
}

func toResult(f fusedCandidate) Result {
	p := f.hit.Payload
	r := Result{
		ID:          f.hit.ID,
		Score:       f.rrfScore,
		TextPreview: p["chunk_text"],
		Source:      p["source"],
		FilePath:    p["filepath"],
		Title:       p["title"],
		Payload:     p,
	}
	if r.TextPreview == "" {
		r.TextPreview = p["text_preview"]
	}
	if ts, ok := p["timestamp"]; ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			r.Timestamp = parsed
		}
	}
	return r
}

// Package enrich implements the read-mostly analyses run over memory_chunks:
// the people graph, project pulse, behavioral pattern detection, and the
// resume/handoff project-time estimator.
package enrich

import (
	"context"

	"github.com/jarvis-ai/jarvis/engine/vector"
)

// ScanPageSize is the page size used when scrolling a collection.
const ScanPageSize = 1000

// Scroller is the subset of vector.Store an enrichment scan needs.
type Scroller interface {
	Scroll(ctx context.Context, collection string, pageSize int, offset string) (vector.ScrollPage, error)
}

// Scan walks every point in collection page by page, calling visit once per
// page. It stops when a page reports no further offset, on ctx cancellation,
// or on the first error from visit or the store.
func Scan(ctx context.Context, store Scroller, collection string, visit func([]vector.Hit) error) error {
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := store.Scroll(ctx, collection, ScanPageSize, offset)
		if err != nil {
			return err
		}
		if err := visit(page.Hits); err != nil {
			return err
		}
		if page.NextOffset == "" {
			return nil
		}
		offset = page.NextOffset
	}
}

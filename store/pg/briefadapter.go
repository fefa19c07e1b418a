package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/brief"
)

// captureSummaryMaxChars bounds how much OCR text a capture summary quotes,
// matching brief.MorningBriefing's display-length expectations.
const captureSummaryMaxChars = 200

// CaptureSummaryReader adapts a *CaptureStore to brief.CaptureReader,
// truncating OCR text into a summary rather than returning full captures.
type CaptureSummaryReader struct {
	store *CaptureStore
}

func NewCaptureSummaryReader(store *CaptureStore) *CaptureSummaryReader {
	return &CaptureSummaryReader{store: store}
}

func (r *CaptureSummaryReader) CapturesBetween(ctx context.Context, start, end time.Time) ([]brief.CaptureSummary, error) {
	captures, err := r.store.Between(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]brief.CaptureSummary, 0, len(captures))
	for _, c := range captures {
		summary := ""
		if c.OCRText != nil {
			summary = *c.OCRText
		}
		if len(summary) > captureSummaryMaxChars {
			summary = strings.TrimSpace(summary[:captureSummaryMaxChars]) + "..."
		}
		out = append(out, brief.CaptureSummary{ID: c.ID, Timestamp: c.Timestamp, Summary: summary})
	}
	return out, nil
}

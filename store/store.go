// Package store defines the storage interfaces the server binds against:
// captures, conversations, detected patterns, entity classifications, and
// per-source sync cursors. pg is the only implementation today, but keeping
// these as interfaces lets tests substitute fakes the way pkg/repo's
// generic Repository already does for the graph layer.
package store

import (
	"context"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// CaptureStore persists Capture rows and their OCR processing state.
type CaptureStore interface {
	Create(ctx context.Context, c domain.Capture) error
	UpdateOCR(ctx context.Context, id string, ocrText string, status domain.CaptureStatus) error
	Get(ctx context.Context, id string) (domain.Capture, error)
	Between(ctx context.Context, start, end time.Time) ([]domain.Capture, error)
}

// ConversationStore persists imported Conversation rows.
type ConversationStore interface {
	Create(ctx context.Context, c domain.Conversation) error
	Exists(ctx context.Context, externalID string, source domain.ConversationSource) (bool, error)
	Get(ctx context.Context, id string) (domain.Conversation, error)
}

// PatternStore persists DetectedPattern cohorts. ReplaceActive dismisses
// every currently-active row for detectorKey and inserts patterns in the
// same transaction, satisfying engine/enrich.PatternStore.
type PatternStore interface {
	ReplaceActive(ctx context.Context, detectorKey string, patterns []domain.DetectedPattern) error
	ActiveByType(ctx context.Context, types ...domain.PatternType) ([]domain.DetectedPattern, error)
}

// EntityClassificationStore caches LLM entity classifications keyed by
// entity name. Put overwrites the cached entry for a name; there is no
// force-refresh option.
type EntityClassificationStore interface {
	Get(ctx context.Context, entityName string) (domain.EntityClassification, bool, error)
	Put(ctx context.Context, c domain.EntityClassification) error
}

// SyncCursor is the last-synced watermark for one external source (e.g. a
// calendar or email account), letting an incremental sync job resume where
// it left off.
type SyncCursor struct {
	Source   string
	Cursor   string
	SyncedAt time.Time
}

// SyncStateStore persists per-source sync cursors.
type SyncStateStore interface {
	Get(ctx context.Context, source string) (SyncCursor, bool, error)
	Set(ctx context.Context, cursor SyncCursor) error
}

// Package domain defines the core entities shared across the agent and
// server: captures, conversations, chunks, patterns, and the vector point
// format they are indexed under. It acts as the validation gate at pipeline
// entry points, mirroring the role the domain package plays in the rest of
// the ingest and enrichment pipelines.
package domain

import "time"

// CaptureStatus is the lifecycle state of a Capture's OCR processing.
type CaptureStatus string

const (
	CaptureStatusPending    CaptureStatus = "pending"
	CaptureStatusProcessing CaptureStatus = "processing"
	CaptureStatusCompleted  CaptureStatus = "completed"
	CaptureStatusFailed     CaptureStatus = "failed"
)

// Capture is one uploaded screenshot and its OCR result.
type Capture struct {
	ID              string        `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	MonitorIndex    int           `json:"monitor_index"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	ByteSize        int64         `json:"byte_size"`
	FilePath        string        `json:"file_path"`
	OCRText         *string       `json:"ocr_text,omitempty"`
	ProcessingState CaptureStatus `json:"processing_status"`
}

// QueuedCaptureStatus is the lifecycle state of an agent-side upload queue entry.
type QueuedCaptureStatus string

const (
	QueuedStatusPending   QueuedCaptureStatus = "pending"
	QueuedStatusUploading QueuedCaptureStatus = "uploading"
	QueuedStatusFailed    QueuedCaptureStatus = "failed"
)

// MaxUploadAttempts is the attempt ceiling after which a QueuedCapture is
// parked as failed and never retried automatically.
const MaxUploadAttempts = 5

// QueuedCapture is a capture awaiting upload from the agent's local queue.
type QueuedCapture struct {
	ID           string              `json:"id"`
	FilePath     string              `json:"file_path"`
	MetadataJSON string              `json:"metadata_json"`
	CreatedAt    time.Time           `json:"created_at"`
	Attempts     int                 `json:"attempts"`
	LastAttempt  *time.Time          `json:"last_attempt,omitempty"`
	Status       QueuedCaptureStatus `json:"status"`
	Error        *string             `json:"error,omitempty"`
}

// Exhausted reports whether this entry has hit MaxUploadAttempts and must
// not be retried automatically.
func (q QueuedCapture) Exhausted() bool {
	return q.Attempts >= MaxUploadAttempts
}

// ConversationSource tags which export format a Conversation came from.
type ConversationSource string

const (
	SourceChatGPT ConversationSource = "chatgpt"
	SourceClaude  ConversationSource = "claude"
	SourceGrok    ConversationSource = "grok"
)

// Conversation is an imported chat export, immutable after import except
// for ProcessingStatus.
type Conversation struct {
	ID               string             `json:"id"`
	ExternalID       string             `json:"external_id"`
	Source           ConversationSource `json:"source"`
	Title            string             `json:"title"`
	FullText         string             `json:"full_text"`
	MessageCount     int                `json:"message_count"`
	ConversationDate *time.Time         `json:"conversation_date,omitempty"`
	ImportedAt       time.Time          `json:"imported_at"`
	ProcessingStatus CaptureStatus      `json:"processing_status"`
}

// Sentiment classifies the overall tone of a chunk.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Chunk is a slice of a Conversation (or a Capture's OCR text) sized for
// embedding. It is never persisted outside the vector store.
type Chunk struct {
	ConversationID   string     `json:"conversation_id"`
	Source           string     `json:"source"`
	Title            string     `json:"title"`
	ChunkText        string     `json:"chunk_text"`
	ChunkIndex       int        `json:"chunk_index"`
	TotalChunks      int        `json:"total_chunks"`
	ConversationDate *time.Time `json:"conversation_date,omitempty"`
}

// ChunkTags are the entities and signals extracted deterministically from a
// chunk's text.
type ChunkTags struct {
	People       []string  `json:"people"`
	Projects     []string  `json:"projects"`
	Decisions    []string  `json:"decisions"`
	ActionItems  []string  `json:"action_items"`
	Topics       []string  `json:"topics"`
	DatesMention []string  `json:"dates_mentioned"`
	Sentiment    Sentiment `json:"sentiment"`
}

// Embedding is one chunk's dense and sparse vector pair.
type Embedding struct {
	Dense        []float32 `json:"dense"`
	SparseIdx    []uint32  `json:"sparse_indices"`
	SparseValues []float32 `json:"sparse_values"`
}

// DenseDim is the fixed dense vector dimensionality used throughout the
// vector store.
const DenseDim = 384

// VectorPoint is the record stored in Qdrant for one chunk or capture.
type VectorPoint struct {
	ID               string     `json:"id"`
	Embedding        Embedding  `json:"-"`
	ConversationID   string     `json:"conversation_id,omitempty"`
	CaptureID        string     `json:"capture_id,omitempty"`
	Source           string     `json:"source"`
	Title            string     `json:"title"`
	ChunkText        string     `json:"chunk_text"`
	ChunkIndex       int        `json:"chunk_index"`
	TotalChunks      int        `json:"total_chunks"`
	ConversationDate *time.Time `json:"conversation_date,omitempty"`
	ChunkTags
	Timestamp time.Time `json:"timestamp"`
}

// PayloadChunkTextLimit is the max stored length of chunk_text in a point's
// payload; the vector itself is computed from the full, untruncated text.
const PayloadChunkTextLimit = 1000

// PayloadActionItemSeparator joins action-item sentences in a point's
// payload. Action items are free text and may themselves contain commas, so
// they can't share the comma-joined convention used for people/projects/topics.
const PayloadActionItemSeparator = " ||| "

// PatternType classifies a DetectedPattern.
type PatternType string

const (
	PatternTimeHabit          PatternType = "time_habit"
	PatternContextSwitching   PatternType = "context_switching"
	PatternProductivityWindow PatternType = "productivity_window"
	PatternRecurringTheme     PatternType = "recurring_theme"
	PatternCommunication      PatternType = "communication_pattern"
	PatternForgottenFollowup  PatternType = "forgotten_followup"
	PatternWorkRhythm         PatternType = "work_rhythm"
	PatternToolPreference     PatternType = "tool_preference"
	PatternRecurringPerson    PatternType = "recurring_person"
	PatternStalePerson        PatternType = "stale_person"
	PatternRecurringTopic     PatternType = "recurring_topic"
	PatternUnfinishedBusiness PatternType = "unfinished_business"
	PatternStaleProject       PatternType = "stale_project"
	PatternBrokenPromise      PatternType = "broken_promise"
)

// PatternStatus is the lifecycle of a DetectedPattern row.
type PatternStatus string

const (
	PatternStatusActive    PatternStatus = "active"
	PatternStatusDismissed PatternStatus = "dismissed"
	PatternStatusResolved  PatternStatus = "resolved"
)

// DetectedPattern is one behavioral pattern surfaced by C8's pattern
// detector. Exactly one cohort of rows is active per pattern key at a time;
// a new detection run dismisses the prior cohort before writing new rows.
type DetectedPattern struct {
	ID              string        `json:"id"`
	PatternType     PatternType   `json:"pattern_type"`
	PatternKey      string        `json:"pattern_key"`
	Description     string        `json:"description"`
	Frequency       int           `json:"frequency"`
	FirstSeen       time.Time     `json:"first_seen"`
	LastSeen        time.Time     `json:"last_seen"`
	SuggestedAction *string       `json:"suggested_action,omitempty"`
	ConversationIDs []string      `json:"conversation_ids"`
	DetectedAt      time.Time     `json:"detected_at"`
	Status          PatternStatus `json:"status"`
}

// EntityType classifies a name surfaced by the tagger as a candidate
// entity, cached to avoid re-asking the LLM classifier.
type EntityType string

const (
	EntityPerson  EntityType = "PERSON"
	EntityProject EntityType = "PROJECT"
	EntityCompany EntityType = "COMPANY"
	EntityTool    EntityType = "TOOL"
	EntityTopic   EntityType = "TOPIC"
	EntityNoise   EntityType = "NOISE"
)

// EntityClassification is a cached LLM classification of an entity name.
type EntityClassification struct {
	EntityName   string     `json:"entity_name"`
	EntityType   EntityType `json:"entity_type"`
	ClassifiedAt time.Time  `json:"classified_at"`
}

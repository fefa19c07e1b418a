package ingest

import "time"

// Item is the unit the pipeline ingests: either an OCR'd screen capture or an
// imported chat conversation, normalized to a single text body before
// chunking. Collection selects which vector collection the resulting points
// land in.
type Item struct {
	ID               string
	CaptureID        string
	ConversationID   string
	Collection       string
	Source           string
	Title            string
	Text             string
	ConversationDate *time.Time
}

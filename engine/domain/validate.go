package domain

import (
	"strconv"
	"strings"
)

var validSources = map[ConversationSource]bool{
	SourceChatGPT: true,
	SourceClaude:  true,
	SourceGrok:    true,
}

// ValidateCapture checks a Capture before it is accepted into the ingest
// pipeline.
func ValidateCapture(c Capture) error {
	if strings.TrimSpace(c.FilePath) == "" {
		return NewValidationError("file_path", c.FilePath, ErrEmptyCaptureFile)
	}
	if c.ByteSize > MaxCaptureBytes {
		return NewValidationError("byte_size", strconv.FormatInt(c.ByteSize, 10), ErrCaptureTooLarge)
	}
	switch c.ProcessingState {
	case CaptureStatusPending, CaptureStatusProcessing, CaptureStatusCompleted, CaptureStatusFailed:
	default:
		return NewValidationError("processing_status", string(c.ProcessingState), ErrInvalidProcessingStatus)
	}
	return nil
}

// ValidateConversation checks a Conversation before import.
func ValidateConversation(c Conversation) error {
	if strings.TrimSpace(c.ExternalID) == "" {
		return NewValidationError("external_id", c.ExternalID, ErrEmptyConversationID)
	}
	if !validSources[c.Source] {
		return NewValidationError("source", string(c.Source), ErrUnknownSource)
	}
	return nil
}

// ValidateChunk checks a Chunk before it is embedded.
func ValidateChunk(c Chunk) error {
	if strings.TrimSpace(c.ChunkText) == "" {
		return NewValidationError("chunk_text", "", ErrEmptyChunkText)
	}
	return nil
}

// ValidateVectorPoint checks that a VectorPoint carries both vectors and a
// dense vector of the expected dimensionality, per the "every point has a
// dense and a sparse vector" invariant.
func ValidateVectorPoint(p VectorPoint) error {
	if len(p.Embedding.Dense) == 0 || len(p.Embedding.SparseIdx) == 0 {
		return NewValidationError("embedding", p.ID, ErrMissingVector)
	}
	if len(p.Embedding.Dense) != DenseDim {
		return NewValidationError("embedding.dense", p.ID, ErrDimMismatch)
	}
	return nil
}

// TruncateForPayload clamps chunk text to the payload storage limit without
// splitting a multi-byte rune.
func TruncateForPayload(text string) string {
	if len(text) <= PayloadChunkTextLimit {
		return text
	}
	b := []byte(text)[:PayloadChunkTextLimit]
	for len(b) > 0 && !isRuneStart(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return string(b)
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

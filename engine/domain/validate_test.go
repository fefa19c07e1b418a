package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCapture_Valid(t *testing.T) {
	c := Capture{FilePath: "/tmp/shot.png", ByteSize: 1024, ProcessingState: CaptureStatusPending}
	if err := ValidateCapture(c); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestValidateCapture_EmptyPath(t *testing.T) {
	err := ValidateCapture(Capture{ProcessingState: CaptureStatusPending})
	if !errors.Is(err, ErrEmptyCaptureFile) {
		t.Errorf("expected ErrEmptyCaptureFile, got %v", err)
	}
}

func TestValidateCapture_TooLarge(t *testing.T) {
	c := Capture{FilePath: "/tmp/shot.png", ByteSize: MaxCaptureBytes + 1, ProcessingState: CaptureStatusPending}
	if err := ValidateCapture(c); !errors.Is(err, ErrCaptureTooLarge) {
		t.Errorf("expected ErrCaptureTooLarge, got %v", err)
	}
}

func TestValidateCapture_BadStatus(t *testing.T) {
	c := Capture{FilePath: "/tmp/shot.png", ProcessingState: "bogus"}
	if err := ValidateCapture(c); !errors.Is(err, ErrInvalidProcessingStatus) {
		t.Errorf("expected ErrInvalidProcessingStatus, got %v", err)
	}
}

func TestValidateConversation(t *testing.T) {
	cases := []struct {
		conv    Conversation
		wantErr error
	}{
		{Conversation{ExternalID: "ext-1", Source: SourceChatGPT}, nil},
		{Conversation{ExternalID: "", Source: SourceChatGPT}, ErrEmptyConversationID},
		{Conversation{ExternalID: "ext-1", Source: "bogus"}, ErrUnknownSource},
	}
	for _, c := range cases {
		err := ValidateConversation(c.conv)
		if c.wantErr == nil && err != nil {
			t.Errorf("expected valid for %+v, got %v", c.conv, err)
		}
		if c.wantErr != nil && !errors.Is(err, c.wantErr) {
			t.Errorf("expected %v for %+v, got %v", c.wantErr, c.conv, err)
		}
	}
}

func TestValidateChunk_Empty(t *testing.T) {
	if err := ValidateChunk(Chunk{ChunkText: "  "}); !errors.Is(err, ErrEmptyChunkText) {
		t.Errorf("expected ErrEmptyChunkText, got %v", err)
	}
}

func TestValidateVectorPoint(t *testing.T) {
	dense := make([]float32, DenseDim)
	valid := VectorPoint{ID: "p1", Embedding: Embedding{Dense: dense, SparseIdx: []uint32{1}, SparseValues: []float32{0.5}}}
	if err := ValidateVectorPoint(valid); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	missing := VectorPoint{ID: "p2"}
	if err := ValidateVectorPoint(missing); !errors.Is(err, ErrMissingVector) {
		t.Errorf("expected ErrMissingVector, got %v", err)
	}

	wrongDim := VectorPoint{ID: "p3", Embedding: Embedding{Dense: make([]float32, 10), SparseIdx: []uint32{1}, SparseValues: []float32{0.5}}}
	if err := ValidateVectorPoint(wrongDim); !errors.Is(err, ErrDimMismatch) {
		t.Errorf("expected ErrDimMismatch, got %v", err)
	}
}

func TestTruncateForPayload(t *testing.T) {
	short := "hello world"
	if got := TruncateForPayload(short); got != short {
		t.Errorf("short text should be unchanged, got %q", got)
	}

	long := strings.Repeat("a", PayloadChunkTextLimit+50)
	got := TruncateForPayload(long)
	if len(got) != PayloadChunkTextLimit {
		t.Errorf("expected length %d, got %d", PayloadChunkTextLimit, len(got))
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	ve := NewValidationError("file_path", "", ErrEmptyCaptureFile)
	if !errors.Is(ve, ErrEmptyCaptureFile) {
		t.Errorf("Unwrap should expose ErrEmptyCaptureFile")
	}
	var target *ValidationError
	if !errors.As(ve, &target) {
		t.Errorf("errors.As should work for *ValidationError")
	}
	if target.Field != "file_path" {
		t.Errorf("expected field=file_path, got %s", target.Field)
	}
}

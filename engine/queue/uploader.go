package queue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jarvis-ai/jarvis/pkg/resilience"
)

// DrainBatchSize is how many pending rows Uploader.Drain attempts per call.
const DrainBatchSize = 10

// Uploader drains a Queue by POSTing each pending item to a server endpoint
// as multipart/form-data, wrapped in a circuit breaker so a down server
// fails fast instead of blocking the agent's own tick loop.
type Uploader struct {
	queue      *Queue
	endpoint   string
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// NewUploader builds an Uploader posting to endpoint.
func NewUploader(queue *Queue, endpoint string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		queue:      queue,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:     logger,
	}
}

// Drain attempts to upload up to DrainBatchSize pending items, marking each
// completed, retried, or permanently failed according to the response.
func (u *Uploader) Drain(ctx context.Context) error {
	pending, err := u.queue.Pending(DrainBatchSize)
	if err != nil {
		return fmt.Errorf("queue: list pending for drain: %w", err)
	}

	for _, item := range pending {
		if err := u.queue.MarkUploading(item.ID); err != nil {
			u.logger.Error("queue: mark uploading failed", "id", item.ID, "err", err)
			continue
		}

		err := u.breaker.Call(ctx, func(ctx context.Context) error {
			return u.upload(ctx, item.FilePath, item.MetadataJSON)
		})
		if err != nil {
			if markErr := u.queue.MarkFailed(item.ID, err.Error()); markErr != nil {
				u.logger.Error("queue: mark failed failed", "id", item.ID, "err", markErr)
			}
			u.logger.Warn("queue: upload failed", "id", item.ID, "err", err)
			continue
		}

		if err := u.queue.MarkCompleted(item.ID); err != nil {
			u.logger.Error("queue: mark completed failed", "id", item.ID, "err", err)
		}
	}
	return nil
}

func (u *Uploader) upload(ctx context.Context, filePath, metadataJSON string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("metadata", metadataJSON); err != nil {
		return fmt.Errorf("write metadata field: %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy file into form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}
	return nil
}

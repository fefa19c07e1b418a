package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// CaptureStore implements store.CaptureStore backed by Postgres.
type CaptureStore struct {
	pool *pgxpool.Pool
}

func NewCaptureStore(pool *pgxpool.Pool) *CaptureStore {
	return &CaptureStore{pool: pool}
}

// Create inserts a new capture row.
func (s *CaptureStore) Create(ctx context.Context, c domain.Capture) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO captures (id, timestamp, monitor_index, width, height, byte_size, file_path, ocr_text, processing_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Timestamp, c.MonitorIndex, c.Width, c.Height, c.ByteSize, c.FilePath, c.OCRText, c.ProcessingState,
	)
	if err != nil {
		return fmt.Errorf("pg: create capture: %w", err)
	}
	return nil
}

// UpdateOCR records the OCR result and advances processing_status.
func (s *CaptureStore) UpdateOCR(ctx context.Context, id string, ocrText string, status domain.CaptureStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE captures SET ocr_text = $2, processing_status = $3 WHERE id = $1`,
		id, ocrText, status,
	)
	if err != nil {
		return fmt.Errorf("pg: update ocr for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pg: update ocr: capture %s not found", id)
	}
	return nil
}

// Get fetches a single capture by id.
func (s *CaptureStore) Get(ctx context.Context, id string) (domain.Capture, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, timestamp, monitor_index, width, height, byte_size, file_path, ocr_text, processing_status
		FROM captures WHERE id = $1`, id)
	c, err := scanCapture(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Capture{}, fmt.Errorf("pg: capture %s: %w", id, err)
	}
	if err != nil {
		return domain.Capture{}, fmt.Errorf("pg: get capture %s: %w", id, err)
	}
	return c, nil
}

// Between returns captures with timestamp in [start, end], oldest first.
func (s *CaptureStore) Between(ctx context.Context, start, end time.Time) ([]domain.Capture, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp, monitor_index, width, height, byte_size, file_path, ocr_text, processing_status
		FROM captures WHERE timestamp BETWEEN $1 AND $2 ORDER BY timestamp ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("pg: captures between: %w", err)
	}
	defer rows.Close()

	var out []domain.Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan capture: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (domain.Capture, error) {
	var c domain.Capture
	err := row.Scan(&c.ID, &c.Timestamp, &c.MonitorIndex, &c.Width, &c.Height, &c.ByteSize, &c.FilePath, &c.OCRText, &c.ProcessingState)
	return c, err
}

// Package queue is the agent-side persistent upload queue: captures are
// queued locally when the server is unreachable and drained once
// connectivity returns, surviving agent restarts via a local SQLite file.
package queue

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// RetryBackoff is the minimum wait between upload attempts for the same
// queued item.
const RetryBackoff = 60 * time.Second

// Queue is a SQLite-backed persistent queue for offline capture uploads.
type Queue struct {
	db *sql.DB
}

// Open creates (if needed) the parent directory and SQLite file at path and
// ensures the upload_queue table and its status/created_at index exist.
func Open(path string) (*Queue, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("queue: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("queue: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	q := &Queue{db: db}
	if err := q.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) createTable() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS upload_queue (
			id TEXT PRIMARY KEY,
			filepath TEXT NOT NULL,
			metadata_json TEXT NOT NULL,
			created_at TEXT NOT NULL,
			attempts INTEGER DEFAULT 0,
			last_attempt TEXT,
			status TEXT DEFAULT 'pending',
			error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("queue: create table: %w", err)
	}
	_, err = q.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_queue_status_created
		ON upload_queue (status, created_at)
	`)
	if err != nil {
		return fmt.Errorf("queue: create index: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue adds a capture to the upload queue and returns its generated ID.
func (q *Queue) Enqueue(filePath, metadataJSON string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := q.db.Exec(
		`INSERT INTO upload_queue (id, filepath, metadata_json, created_at, status)
		 VALUES (?, ?, ?, ?, 'pending')`,
		id, filePath, metadataJSON, now,
	)
	if err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	return id, nil
}

// Pending returns up to limit items ready for upload: status pending and
// either never attempted or last attempted more than RetryBackoff ago.
func (q *Queue) Pending(limit int) ([]domain.QueuedCapture, error) {
	cutoff := time.Now().UTC().Add(-RetryBackoff).Format(time.RFC3339)

	rows, err := q.db.Query(
		`SELECT id, filepath, metadata_json, created_at, attempts, last_attempt, status, error
		 FROM upload_queue
		 WHERE status = 'pending'
		   AND (last_attempt IS NULL OR last_attempt < ?)
		 ORDER BY created_at ASC
		 LIMIT ?`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("queue: pending: %w", err)
	}
	defer rows.Close()

	var items []domain.QueuedCapture
	for rows.Next() {
		item, err := scanQueuedCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("queue: scan pending row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQueuedCapture(row scanner) (domain.QueuedCapture, error) {
	var item domain.QueuedCapture
	var createdAt string
	var lastAttempt, errMsg sql.NullString

	if err := row.Scan(&item.ID, &item.FilePath, &item.MetadataJSON, &createdAt,
		&item.Attempts, &lastAttempt, &item.Status, &errMsg); err != nil {
		return domain.QueuedCapture{}, err
	}

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return domain.QueuedCapture{}, fmt.Errorf("parse created_at: %w", err)
	}
	item.CreatedAt = created

	if lastAttempt.Valid {
		t, err := time.Parse(time.RFC3339, lastAttempt.String)
		if err != nil {
			return domain.QueuedCapture{}, fmt.Errorf("parse last_attempt: %w", err)
		}
		item.LastAttempt = &t
	}
	if errMsg.Valid {
		item.Error = &errMsg.String
	}
	return item, nil
}

// MarkUploading bumps attempts and records last_attempt for id.
func (q *Queue) MarkUploading(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.db.Exec(
		`UPDATE upload_queue SET status = 'uploading', attempts = attempts + 1, last_attempt = ? WHERE id = ?`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("queue: mark uploading %s: %w", id, err)
	}
	return nil
}

// MarkCompleted removes id from the queue after a successful upload.
func (q *Queue) MarkCompleted(id string) error {
	if _, err := q.db.Exec(`DELETE FROM upload_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("queue: mark completed %s: %w", id, err)
	}
	return nil
}

// MarkFailed records errMsg against id. If the item has reached
// domain.MaxUploadAttempts it is parked as permanently failed; otherwise it
// returns to pending so a later Pending call retries it.
func (q *Queue) MarkFailed(id, errMsg string) error {
	var attempts int
	err := q.db.QueryRow(`SELECT attempts FROM upload_queue WHERE id = ?`, id).Scan(&attempts)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("queue: mark failed %s: read attempts: %w", id, err)
	}

	status := domain.QueuedStatusPending
	if attempts >= domain.MaxUploadAttempts {
		status = domain.QueuedStatusFailed
	}
	_, err = q.db.Exec(`UPDATE upload_queue SET status = ?, error = ? WHERE id = ?`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("queue: mark failed %s: %w", id, err)
	}
	return nil
}

// Stats returns item counts by status plus a total.
func (q *Queue) Stats() (map[string]int, error) {
	rows, err := q.db.Query(`SELECT status, COUNT(*) FROM upload_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue: stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "uploading": 0, "failed": 0, "total": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("queue: scan stats row: %w", err)
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

// CleanupOld removes failed items older than olderThan and returns the
// number of rows removed.
func (q *Queue) CleanupOld(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := q.db.Exec(`DELETE FROM upload_queue WHERE status = 'failed' AND created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("queue: cleanup old: %w", err)
	}
	return res.RowsAffected()
}

package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jarvis-ai/jarvis/store"
)

// SyncStateStore implements store.SyncStateStore, tracking the last-synced
// watermark per external source so an incremental sync job can resume.
type SyncStateStore struct {
	pool *pgxpool.Pool
}

func NewSyncStateStore(pool *pgxpool.Pool) *SyncStateStore {
	return &SyncStateStore{pool: pool}
}

func (s *SyncStateStore) Get(ctx context.Context, source string) (store.SyncCursor, bool, error) {
	var c store.SyncCursor
	err := s.pool.QueryRow(ctx,
		`SELECT source, cursor, synced_at FROM sync_state WHERE source = $1`, source,
	).Scan(&c.Source, &c.Cursor, &c.SyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.SyncCursor{}, false, nil
	}
	if err != nil {
		return store.SyncCursor{}, false, fmt.Errorf("pg: get sync state %s: %w", source, err)
	}
	return c, true, nil
}

func (s *SyncStateStore) Set(ctx context.Context, cursor store.SyncCursor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_state (source, cursor, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (source) DO UPDATE SET cursor = $2, synced_at = $3`,
		cursor.Source, cursor.Cursor, cursor.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("pg: set sync state %s: %w", cursor.Source, err)
	}
	return nil
}

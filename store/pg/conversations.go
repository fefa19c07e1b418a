package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// ConversationStore implements store.ConversationStore backed by Postgres.
type ConversationStore struct {
	pool *pgxpool.Pool
}

func NewConversationStore(pool *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{pool: pool}
}

// Create inserts a newly imported conversation.
func (s *ConversationStore) Create(ctx context.Context, c domain.Conversation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, external_id, source, title, full_text, message_count, conversation_date, imported_at, processing_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.ExternalID, c.Source, c.Title, c.FullText, c.MessageCount, c.ConversationDate, c.ImportedAt, c.ProcessingStatus,
	)
	if err != nil {
		return fmt.Errorf("pg: create conversation: %w", err)
	}
	return nil
}

// Exists reports whether externalID/source was already imported, letting
// the ingest pipeline skip duplicate exports.
func (s *ConversationStore) Exists(ctx context.Context, externalID string, source domain.ConversationSource) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE external_id = $1 AND source = $2)`,
		externalID, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pg: conversation exists: %w", err)
	}
	return exists, nil
}

// ExistsByExternalID reports whether any conversation with the given
// external id was already imported, regardless of source. Used by the
// ingest consumer, which only carries an item id and not its source.
func (s *ConversationStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE external_id = $1)`,
		externalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pg: conversation exists by external id: %w", err)
	}
	return exists, nil
}

// Get fetches a single conversation by id.
func (s *ConversationStore) Get(ctx context.Context, id string) (domain.Conversation, error) {
	var c domain.Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT id, external_id, source, title, full_text, message_count, conversation_date, imported_at, processing_status
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.ExternalID, &c.Source, &c.Title, &c.FullText, &c.MessageCount, &c.ConversationDate, &c.ImportedAt, &c.ProcessingStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, fmt.Errorf("pg: conversation %s: %w", id, err)
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("pg: get conversation %s: %w", id, err)
	}
	return c, nil
}

package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// EntityClassificationStore implements store.EntityClassificationStore,
// caching LLM entity classifications keyed by entity name.
type EntityClassificationStore struct {
	pool *pgxpool.Pool
}

func NewEntityClassificationStore(pool *pgxpool.Pool) *EntityClassificationStore {
	return &EntityClassificationStore{pool: pool}
}

func (s *EntityClassificationStore) Get(ctx context.Context, entityName string) (domain.EntityClassification, bool, error) {
	var c domain.EntityClassification
	err := s.pool.QueryRow(ctx,
		`SELECT entity_name, entity_type, classified_at FROM entity_classifications WHERE entity_name = $1`,
		entityName,
	).Scan(&c.EntityName, &c.EntityType, &c.ClassifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EntityClassification{}, false, nil
	}
	if err != nil {
		return domain.EntityClassification{}, false, fmt.Errorf("pg: get entity classification %s: %w", entityName, err)
	}
	return c, true, nil
}

func (s *EntityClassificationStore) Put(ctx context.Context, c domain.EntityClassification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entity_classifications (entity_name, entity_type, classified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_name) DO UPDATE SET entity_type = $2, classified_at = $3`,
		c.EntityName, c.EntityType, c.ClassifiedAt,
	)
	if err != nil {
		return fmt.Errorf("pg: put entity classification %s: %w", c.EntityName, err)
	}
	return nil
}

package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// PatternStore implements store.PatternStore backed by Postgres. Exactly
// one cohort of rows is active per detector key: ReplaceActive dismisses
// the prior cohort and inserts the new one inside a single transaction so
// a reader never observes neither cohort.
type PatternStore struct {
	pool *pgxpool.Pool
}

func NewPatternStore(pool *pgxpool.Pool) *PatternStore {
	return &PatternStore{pool: pool}
}

func (s *PatternStore) ReplaceActive(ctx context.Context, detectorKey string, patterns []domain.DetectedPattern) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin replace active patterns: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE detected_patterns SET status = $2 WHERE detector_key = $1 AND status = $3`,
		detectorKey, domain.PatternStatusDismissed, domain.PatternStatusActive,
	); err != nil {
		return fmt.Errorf("pg: dismiss prior cohort for %s: %w", detectorKey, err)
	}

	for _, p := range patterns {
		if _, err := tx.Exec(ctx, `
			INSERT INTO detected_patterns
				(id, detector_key, pattern_type, pattern_key, description, frequency, first_seen, last_seen, suggested_action, conversation_ids, detected_at, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, detectorKey, p.PatternType, p.PatternKey, p.Description, p.Frequency, p.FirstSeen, p.LastSeen,
			p.SuggestedAction, p.ConversationIDs, p.DetectedAt, p.Status,
		); err != nil {
			return fmt.Errorf("pg: insert pattern %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit replace active patterns: %w", err)
	}
	return nil
}

// Get fetches a single detected pattern by id, regardless of status, for
// the why endpoint to resolve a pattern suggestion back to its evidence.
func (s *PatternStore) Get(ctx context.Context, id string) (domain.DetectedPattern, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, pattern_type, pattern_key, description, frequency, first_seen, last_seen, suggested_action, conversation_ids, detected_at, status
		FROM detected_patterns WHERE id = $1`, id)
	p, err := scanPattern(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DetectedPattern{}, fmt.Errorf("pg: pattern %s: %w", id, err)
	}
	if err != nil {
		return domain.DetectedPattern{}, fmt.Errorf("pg: get pattern %s: %w", id, err)
	}
	return p, nil
}

func (s *PatternStore) ActiveByType(ctx context.Context, types ...domain.PatternType) ([]domain.DetectedPattern, error) {
	query := `
		SELECT id, pattern_type, pattern_key, description, frequency, first_seen, last_seen, suggested_action, conversation_ids, detected_at, status
		FROM detected_patterns WHERE status = $1`
	args := []any{domain.PatternStatusActive}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND pattern_type IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY last_seen DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: active patterns by type: %w", err)
	}
	defer rows.Close()

	var out []domain.DetectedPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPattern(row pgx.Row) (domain.DetectedPattern, error) {
	var p domain.DetectedPattern
	err := row.Scan(&p.ID, &p.PatternType, &p.PatternKey, &p.Description, &p.Frequency, &p.FirstSeen, &p.LastSeen,
		&p.SuggestedAction, &p.ConversationIDs, &p.DetectedAt, &p.Status)
	return p, err
}

package repository

import (
	"context"
	"fmt"

	"github.com/wagerlab/arenacore/internal/domain"
)

// InsertQueueEntry adds agentKey to the pairing queue (spec §4.8
// "enterQueue").
func (s *Store) InsertQueueEntry(ctx context.Context, entry domain.QueueEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (agent_key, discipline, rating, enqueued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agent_key) DO UPDATE SET
			discipline = EXCLUDED.discipline,
			rating = EXCLUDED.rating,
			enqueued_at = EXCLUDED.enqueued_at,
			expires_at = EXCLUDED.expires_at
	`, entry.AgentKey, entry.Discipline, entry.Rating, entry.EnqueuedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert queue entry for %s: %w", entry.AgentKey, err)
	}
	return nil
}

// RemoveQueueEntry deletes agentKey's queue entry, if present.
func (s *Store) RemoveQueueEntry(ctx context.Context, agentKey string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE agent_key = $1`, agentKey)
	if err != nil {
		return fmt.Errorf("remove queue entry for %s: %w", agentKey, err)
	}
	return nil
}

// ListActiveQueueEntries returns every queue entry for the pairing loop to
// partition into expired/live (spec §4.8 step 1).
func (s *Store) ListActiveQueueEntries(ctx context.Context) ([]domain.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_key, discipline, rating, enqueued_at, expires_at FROM queue_entries
		ORDER BY enqueued_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active queue entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueueEntry
	for rows.Next() {
		var e domain.QueueEntry
		if err := rows.Scan(&e.AgentKey, &e.Discipline, &e.Rating, &e.EnqueuedAt, &e.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue entries: %w", err)
	}
	return entries, nil
}

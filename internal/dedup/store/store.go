package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Reserve claims the dedup key via a single upsert against the unique key
// column, so two racing documents with the same key cannot both win. A key
// whose first sighting has aged out of the window is reclaimed: recurring
// invoices past the window are legitimate, not duplicates.
func (s *Store) Reserve(ctx context.Context, key string, receivedAt time.Time, window time.Duration) (bool, error) {
	query := `
		INSERT INTO dedup_keys (dedup_key, first_seen)
		VALUES ($1, $2)
		ON CONFLICT (dedup_key) DO UPDATE
			SET first_seen = EXCLUDED.first_seen
			WHERE dedup_keys.first_seen < EXCLUDED.first_seen - make_interval(secs => $3)
		RETURNING dedup_key
	`

	var reserved string

	err := s.db.QueryRowContext(ctx, query, key, receivedAt, window.Seconds()).Scan(&reserved)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict row still inside the window: duplicate.
			return false, nil
		}

		return false, fmt.Errorf("reserving dedup key: %w", err)
	}

	return true, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/match"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanHold reads a hold row.
// Expected column order: id, document_id, reason, details, suggested_actions,
// created_at, resolved_at, resolved_by, resolution
func scanHold(s scanner) (*hold.Hold, error) {
	var h hold.Hold

	var reasonStr string

	var actions []byte

	if err := s.Scan(
		&h.ID, &h.DocumentID, &reasonStr, &h.Details, &actions,
		&h.CreatedAt, &h.ResolvedAt, &h.ResolvedBy, &h.Resolution,
	); err != nil {
		return nil, err
	}

	h.Reason = match.Reason(reasonStr)

	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &h.SuggestedActions); err != nil {
			return nil, fmt.Errorf("decoding suggested actions: %w", err)
		}
	}

	return &h, nil
}

const selectHoldColumns = `
	h.id, h.document_id, h.reason, h.details, h.suggested_actions,
	h.created_at, h.resolved_at, h.resolved_by, h.resolution
`

func (s *Store) CreateHold(ctx context.Context, h *hold.Hold) error {
	query := `
		INSERT INTO holds (document_id, reason, details, suggested_actions, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	actions, err := json.Marshal(h.SuggestedActions)
	if err != nil {
		return fmt.Errorf("encoding suggested actions: %w", err)
	}

	err = s.db.QueryRowContext(ctx, query,
		h.DocumentID,
		h.Reason,
		h.Details,
		actions,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating hold: %w", err)
	}

	return nil
}

func (s *Store) GetHold(ctx context.Context, id uuid.UUID) (*hold.Hold, error) {
	query := `SELECT ` + selectHoldColumns + ` FROM holds h WHERE h.id = $1`

	h, err := scanHold(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, hold.ErrNotFound
		}

		return nil, fmt.Errorf("getting hold: %w", err)
	}

	return h, nil
}

func (s *Store) ListHolds(ctx context.Context, filter hold.ListFilter) ([]*hold.Hold, error) {
	query := `SELECT ` + selectHoldColumns + ` FROM holds h WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Reason != nil {
		query += fmt.Sprintf(" AND h.reason = $%d", argIdx)
		args = append(args, *filter.Reason)
		argIdx++
	}

	if filter.DocumentID != nil {
		query += fmt.Sprintf(" AND h.document_id = $%d", argIdx)
		args = append(args, *filter.DocumentID)
		argIdx++
	}

	if filter.Unresolved {
		query += " AND h.resolved_at IS NULL"
	}

	query += " ORDER BY h.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing holds: %w", err)
	}
	defer rows.Close()

	var holds []*hold.Hold

	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning hold: %w", err)
		}

		holds = append(holds, h)
	}

	return holds, rows.Err()
}

// ResolveHold flips an unresolved hold to resolved in a single guarded
// update, so two racing resolutions cannot both succeed.
func (s *Store) ResolveHold(ctx context.Context, id uuid.UUID, resolvedBy, resolution string) (*hold.Hold, error) {
	query := `
		UPDATE holds
		SET resolved_at = NOW(), resolved_by = $1, resolution = $2
		WHERE id = $3 AND resolved_at IS NULL
		RETURNING ` + selectHoldColumnsBare

	h, err := scanHold(s.db.QueryRowContext(ctx, query, resolvedBy, resolution, id))
	if err != nil {
		if err == sql.ErrNoRows {
			// Distinguish a missing hold from one already resolved.
			var resolved bool
			if checkErr := s.db.QueryRowContext(ctx,
				`SELECT resolved_at IS NOT NULL FROM holds WHERE id = $1`, id,
			).Scan(&resolved); checkErr != nil {
				if checkErr == sql.ErrNoRows {
					return nil, hold.ErrNotFound
				}

				return nil, fmt.Errorf("checking hold state: %w", checkErr)
			}

			if resolved {
				return nil, hold.ErrAlreadyResolved
			}

			return nil, hold.ErrNotFound
		}

		return nil, fmt.Errorf("resolving hold: %w", err)
	}

	return h, nil
}

const selectHoldColumnsBare = `
	id, document_id, reason, details, suggested_actions,
	created_at, resolved_at, resolved_by, resolution
`

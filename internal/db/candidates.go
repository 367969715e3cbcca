package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertCandidate creates a candidate record on first contact or enriches an
// existing one with display-name fields. Idempotent per external user id:
// repeated calls with the same id return the same row, and empty name fields
// never clobber known values.
func (db *DB) UpsertCandidate(ctx context.Context, input CandidateInput) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (external_id, first_name, last_name, username)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (external_id) DO UPDATE SET
		     first_name = COALESCE(NULLIF($2, ''), candidates.first_name),
		     last_name  = COALESCE(NULLIF($3, ''), candidates.last_name),
		     username   = COALESCE(NULLIF($4, ''), candidates.username)
		 RETURNING id, external_id, first_name, last_name, username, created_at`,
		input.ExternalID, input.FirstName, input.LastName, input.Username,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Username, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert candidate: %w", err)
	}
	return &c, nil
}

// GetCandidateByExternalID retrieves a candidate by chat user id.
// Returns (nil, nil) when the candidate is unknown.
func (db *DB) GetCandidateByExternalID(ctx context.Context, externalID int64) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, external_id, first_name, last_name, username, created_at
		 FROM candidates WHERE external_id = $1`,
		externalID,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Username, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by internal id.
// Returns (nil, nil) when not found.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, external_id, first_name, last_name, username, created_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Username, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertDialogue appends one dialogue entry to the durable log. Entries are
// append-only; there is no update path.
func (db *DB) InsertDialogue(ctx context.Context, entry *DialogueEntry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO dialogues (id, candidate_id, vacancy_id, message_kind, sender,
		                        content, transcription, attachment_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.CandidateID, entry.VacancyID, entry.MessageKind, entry.Sender,
		entry.Content, entry.Transcription, entry.AttachmentRef, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dialogue entry: %w", err)
	}
	return nil
}

// ListDialogues retrieves the most recent entries for a candidate, optionally
// filtered by vacancy, returned oldest first. A limit of 0 means no limit.
func (db *DB) ListDialogues(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID, limit int) ([]DialogueEntry, error) {
	query := `SELECT id, candidate_id, vacancy_id, message_kind, sender,
	                 content, transcription, attachment_ref, created_at
		FROM dialogues WHERE candidate_id = $1`
	args := []any{candidateID}
	argNum := 2

	if vacancyID != nil {
		query += fmt.Sprintf(" AND vacancy_id = $%d", argNum)
		args = append(args, *vacancyID)
		argNum++
	}

	// Take the newest rows, then flip to chronological order.
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogues: %w", err)
	}
	defer rows.Close()

	var entries []DialogueEntry
	for rows.Next() {
		var e DialogueEntry
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.VacancyID, &e.MessageKind, &e.Sender,
			&e.Content, &e.Transcription, &e.AttachmentRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dialogue entry: %w", err)
		}
		entries = append(entries, e)
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// DeleteDialogues removes all entries for a candidate, optionally restricted
// to one vacancy. Deleting an absent key is a no-op, not an error.
func (db *DB) DeleteDialogues(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID) error {
	query := `DELETE FROM dialogues WHERE candidate_id = $1`
	args := []any{candidateID}
	if vacancyID != nil {
		query += " AND vacancy_id = $2"
		args = append(args, *vacancyID)
	}

	if _, err := db.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete dialogues: %w", err)
	}
	return nil
}

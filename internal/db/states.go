package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActiveInterviewState retrieves the candidate's most recent non-completed
// state, or (nil, nil) when every interview for the candidate is finished or
// none was ever started.
func (db *DB) ActiveInterviewState(ctx context.Context, candidateID uuid.UUID) (*InterviewState, error) {
	s, err := scanState(db.pool.QueryRow(ctx,
		`SELECT id, candidate_id, vacancy_id, stage, question_count, last_activity, created_at
		 FROM interview_states
		 WHERE candidate_id = $1 AND stage <> $2
		 ORDER BY last_activity DESC LIMIT 1`,
		candidateID, StageCompleted))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active interview state: %w", err)
	}
	return s, nil
}

// LatestInterviewState retrieves the candidate's most recent state regardless
// of stage, or (nil, nil) when the candidate never started.
func (db *DB) LatestInterviewState(ctx context.Context, candidateID uuid.UUID) (*InterviewState, error) {
	s, err := scanState(db.pool.QueryRow(ctx,
		`SELECT id, candidate_id, vacancy_id, stage, question_count, last_activity, created_at
		 FROM interview_states
		 WHERE candidate_id = $1
		 ORDER BY last_activity DESC LIMIT 1`,
		candidateID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest interview state: %w", err)
	}
	return s, nil
}

// GetInterviewState retrieves the state for a (candidate, vacancy) pair.
// Returns (nil, nil) when none exists.
func (db *DB) GetInterviewState(ctx context.Context, candidateID, vacancyID uuid.UUID) (*InterviewState, error) {
	s, err := scanState(db.pool.QueryRow(ctx,
		`SELECT id, candidate_id, vacancy_id, stage, question_count, last_activity, created_at
		 FROM interview_states
		 WHERE candidate_id = $1 AND vacancy_id = $2`,
		candidateID, vacancyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview state: %w", err)
	}
	return s, nil
}

// CreateInterviewState starts an interviewing state for a (candidate, vacancy)
// pair with a zero question counter.
func (db *DB) CreateInterviewState(ctx context.Context, candidateID, vacancyID uuid.UUID) (*InterviewState, error) {
	s, err := scanState(db.pool.QueryRow(ctx,
		`INSERT INTO interview_states (candidate_id, vacancy_id, stage, question_count, last_activity)
		 VALUES ($1, $2, $3, 0, NOW())
		 RETURNING id, candidate_id, vacancy_id, stage, question_count, last_activity, created_at`,
		candidateID, vacancyID, StageInterviewing))
	if err != nil {
		return nil, fmt.Errorf("failed to create interview state: %w", err)
	}
	return s, nil
}

// SaveInterviewState persists the stage and question counter of an existing
// state and refreshes its last-activity timestamp. Completed states are never
// reopened: the WHERE clause refuses to move a row out of the terminal stage.
func (db *DB) SaveInterviewState(ctx context.Context, state *InterviewState) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_states
		 SET stage = $1, question_count = $2, last_activity = NOW()
		 WHERE id = $3 AND stage <> $4`,
		state.Stage, state.QuestionCount, state.ID, StageCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to save interview state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview state %s is completed or missing", state.ID)
	}
	return nil
}

func scanState(row pgx.Row) (*InterviewState, error) {
	var s InterviewState
	err := row.Scan(&s.ID, &s.CandidateID, &s.VacancyID, &s.Stage,
		&s.QuestionCount, &s.LastActivity, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

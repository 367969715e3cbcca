package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertEvaluation creates or replaces the evaluation for a (candidate,
// vacancy) pair. The ON CONFLICT clause makes concurrent recomputations
// last-write-wins while the row identity is retained.
func (db *DB) UpsertEvaluation(ctx context.Context, input *EvaluationInput) (*Evaluation, error) {
	analysisJSON := input.Analysis
	if len(analysisJSON) == 0 {
		analysisJSON = json.RawMessage(`{}`)
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO evaluations (candidate_id, vacancy_id, overall_score, technical_score,
		                          communication_score, problem_solving_score, strengths, gaps,
		                          contradictions, recommendation, feedback, analysis)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (candidate_id, vacancy_id) DO UPDATE SET
		     overall_score = $3,
		     technical_score = $4,
		     communication_score = $5,
		     problem_solving_score = $6,
		     strengths = $7,
		     gaps = $8,
		     contradictions = $9,
		     recommendation = $10,
		     feedback = $11,
		     analysis = $12,
		     updated_at = NOW()
		 RETURNING id`,
		input.CandidateID, input.VacancyID, input.OverallScore, input.TechnicalScore,
		input.CommunicationScore, input.ProblemSolvingScore, input.Strengths, input.Gaps,
		input.Contradictions, input.Recommendation, input.Feedback, analysisJSON,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert evaluation: %w", err)
	}

	return db.GetEvaluationByID(ctx, id)
}

const evaluationColumns = `id, candidate_id, vacancy_id, overall_score, technical_score,
	communication_score, problem_solving_score, strengths, gaps, contradictions,
	recommendation, feedback, analysis, created_at, updated_at`

func scanEvaluation(row pgx.Row) (*Evaluation, error) {
	var e Evaluation
	var analysisJSON []byte
	err := row.Scan(&e.ID, &e.CandidateID, &e.VacancyID, &e.OverallScore, &e.TechnicalScore,
		&e.CommunicationScore, &e.ProblemSolvingScore, &e.Strengths, &e.Gaps, &e.Contradictions,
		&e.Recommendation, &e.Feedback, &analysisJSON, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Analysis = json.RawMessage(analysisJSON)
	return &e, nil
}

// GetEvaluationByID retrieves an evaluation by row id.
// Returns (nil, nil) when not found.
func (db *DB) GetEvaluationByID(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	e, err := scanEvaluation(db.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return e, nil
}

// GetEvaluation retrieves the evaluation for a (candidate, vacancy) pair.
// Returns (nil, nil) when none exists.
func (db *DB) GetEvaluation(ctx context.Context, candidateID, vacancyID uuid.UUID) (*Evaluation, error) {
	e, err := scanEvaluation(db.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations
		 WHERE candidate_id = $1 AND vacancy_id = $2`,
		candidateID, vacancyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return e, nil
}

// ListEvaluationsByVacancy retrieves all evaluations for one vacancy, newest
// first.
func (db *DB) ListEvaluationsByVacancy(ctx context.Context, vacancyID uuid.UUID) ([]Evaluation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations
		 WHERE vacancy_id = $1 ORDER BY updated_at DESC`,
		vacancyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, *e)
	}
	return evaluations, nil
}

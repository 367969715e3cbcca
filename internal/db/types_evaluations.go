package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Evaluation is the scored outcome of one completed interview. Exactly one
// exists per (candidate, vacancy) pair; re-running the aggregator replaces the
// scoring fields but keeps the record identity.
type Evaluation struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	VacancyID   uuid.UUID `json:"vacancy_id"`

	OverallScore        int `json:"overall_score"`
	TechnicalScore      int `json:"technical_score"`
	CommunicationScore  int `json:"communication_score"`
	ProblemSolvingScore int `json:"problem_solving_score"`

	Strengths      []string `json:"strengths,omitempty"`
	Gaps           []string `json:"gaps,omitempty"`
	Contradictions []string `json:"contradictions,omitempty"`

	Recommendation string `json:"recommendation"` // proceed, reject, clarify
	Feedback       string `json:"feedback,omitempty"`

	Analysis json.RawMessage `json:"analysis"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EvaluationInput carries the recomputed field set for an upsert.
type EvaluationInput struct {
	CandidateID uuid.UUID
	VacancyID   uuid.UUID

	OverallScore        int
	TechnicalScore      int
	CommunicationScore  int
	ProblemSolvingScore int

	Strengths      []string
	Gaps           []string
	Contradictions []string

	Recommendation string
	Feedback       string

	Analysis json.RawMessage
}

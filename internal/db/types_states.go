package db

import (
	"time"

	"github.com/google/uuid"
)

// InterviewState tracks one candidate's progression against one vacancy.
// VacancyID is nil while the candidate is still selecting a vacancy. The
// transition to completed is terminal for the pair; a fresh interview against
// a different vacancy starts a new state row.
type InterviewState struct {
	ID            uuid.UUID  `json:"id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	VacancyID     *uuid.UUID `json:"vacancy_id,omitempty"`
	Stage         string     `json:"stage"`          // selecting_vacancy, interviewing, completed
	QuestionCount int        `json:"question_count"` // candidate answers processed so far
	LastActivity  time.Time  `json:"last_activity"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Terminal reports whether the state can no longer change.
func (s *InterviewState) Terminal() bool {
	return s.Stage == StageCompleted
}

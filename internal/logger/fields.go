package logger

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Structured field keys shared across packages so log lines stay greppable.
const (
	FieldCandidate = "candidate_id"
	FieldVacancy   = "vacancy_id"
	FieldStage     = "stage"
	FieldTemplate  = "template"
	FieldModel     = "model"
)

// Candidate returns the standard candidate id field.
func Candidate(id uuid.UUID) zap.Field {
	return zap.String(FieldCandidate, id.String())
}

// Vacancy returns the standard vacancy id field. A nil id is logged as "none"
// so stage-selection turns are still attributable.
func Vacancy(id *uuid.UUID) zap.Field {
	if id == nil {
		return zap.String(FieldVacancy, "none")
	}
	return zap.String(FieldVacancy, id.String())
}

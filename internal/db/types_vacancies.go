package db

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SkillRequirement is one named skill a vacancy requires.
type SkillRequirement struct {
	Name      string `json:"name" validate:"required,min=1"`
	Level     string `json:"level" validate:"required,oneof=beginner intermediate advanced expert"`
	Mandatory bool   `json:"mandatory"`
	Weight    int    `json:"weight" validate:"min=1,max=10"`
}

// ExperienceRequirement is a required experience domain with minimum years.
type ExperienceRequirement struct {
	Domain    string `json:"domain" validate:"required,min=1"`
	MinYears  int    `json:"min_years" validate:"min=0"`
	Preferred bool   `json:"preferred"`
}

// EducationRequirement is an optional education constraint.
type EducationRequirement struct {
	Degree   string `json:"degree,omitempty"`
	Field    string `json:"field,omitempty"`
	Required bool   `json:"required"`
}

// LanguageRequirement is an optional spoken-language constraint.
type LanguageRequirement struct {
	Language string `json:"language" validate:"required,min=1"`
	Level    string `json:"level,omitempty"`
}

// Requirements is the structured requirement block of a vacancy.
type Requirements struct {
	Skills     []SkillRequirement      `json:"skills" validate:"dive"`
	Experience []ExperienceRequirement `json:"experience,omitempty" validate:"dive"`
	Education  []EducationRequirement  `json:"education,omitempty"`
	Languages  []LanguageRequirement   `json:"languages,omitempty" validate:"dive"`
	SoftSkills []string                `json:"soft_skills,omitempty"`
}

// EvaluationWeights splits the overall score across the three categories.
// The three values must sum to exactly 100; this is enforced before any
// vacancy is persisted, so the aggregator never re-validates.
type EvaluationWeights struct {
	TechnicalSkills int `json:"technical_skills" validate:"min=0,max=100"`
	Communication   int `json:"communication" validate:"min=0,max=100"`
	ProblemSolving  int `json:"problem_solving" validate:"min=0,max=100"`
}

// Sum returns the total of the three weights.
func (w EvaluationWeights) Sum() int {
	return w.TechnicalSkills + w.Communication + w.ProblemSolving
}

// Vacancy is an open position candidates interview for.
type Vacancy struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Requirements Requirements      `json:"requirements"`
	Weights      EvaluationWeights `json:"evaluation_weights"`
	Active       bool              `json:"active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// VacancyInput is used when creating or updating a vacancy.
type VacancyInput struct {
	Title        string            `json:"title" validate:"required,min=1"`
	Description  string            `json:"description,omitempty"`
	Requirements Requirements      `json:"requirements"`
	Weights      EvaluationWeights `json:"evaluation_weights"`
	Active       bool              `json:"active"`
}

// Validate checks structural constraints via validator tags plus the
// weights-sum invariant that tags cannot express.
func (in *VacancyInput) Validate() error {
	validate := validator.New()
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("vacancy validation failed: %w", err)
	}
	if sum := in.Weights.Sum(); sum != 100 {
		return fmt.Errorf("vacancy validation failed: evaluation weights must sum to 100, got %d", sum)
	}
	return nil
}

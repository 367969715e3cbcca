package interview

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/schemas"
)

// ErrModelOutput marks a turn where the model returned content that could not
// be parsed into the expected fields. The turn is retryable: state and
// counters are never advanced past this error.
var ErrModelOutput = errors.New("model output unusable")

// ParsedQuestion is a validated next-question response.
type ParsedQuestion struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	Topic    string `json:"topic,omitempty"`
}

// ParsedFeedback is a validated final-feedback response.
type ParsedFeedback struct {
	Type      string   `json:"type"`
	Feedback  string   `json:"feedback"`
	Strengths []string `json:"strengths,omitempty"`
	Gaps      []string `json:"gaps,omitempty"`
}

// ParseQuestion validates raw model output against the question schema and
// decodes it. Never trusts the response shape.
func ParseQuestion(raw string) (*ParsedQuestion, error) {
	if err := schemas.Validate(schemas.Question, []byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	var q ParsedQuestion
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	return &q, nil
}

// ParseFeedback validates raw model output against the feedback schema and
// decodes it.
func ParseFeedback(raw string) (*ParsedFeedback, error) {
	if err := schemas.Validate(schemas.Feedback, []byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	var f ParsedFeedback
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	return &f, nil
}

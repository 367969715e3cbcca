package db

import (
	"time"

	"github.com/google/uuid"
)

// Candidate represents a person interacting with the bot, keyed by the stable
// external chat user id. One candidate may hold many dialogues and at most one
// active interview per vacancy.
type Candidate struct {
	ID         uuid.UUID `json:"id"`
	ExternalID int64     `json:"external_id"` // Telegram user id
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CandidateInput is used when creating or enriching a candidate on first
// contact. Empty name fields never overwrite known ones.
type CandidateInput struct {
	ExternalID int64
	FirstName  string
	LastName   string
	Username   string
}

// DisplayName returns the best human-readable name we have for the candidate.
func (c *Candidate) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.Username != "":
		return "@" + c.Username
	default:
		return "candidate"
	}
}

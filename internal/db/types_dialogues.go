package db

import (
	"time"

	"github.com/google/uuid"
)

// DialogueEntry is one turn in a candidate-bot exchange. Entries are
// append-only and ordered by creation timestamp; no entry is ever mutated
// after creation.
type DialogueEntry struct {
	ID          uuid.UUID  `json:"id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	VacancyID   *uuid.UUID `json:"vacancy_id,omitempty"`
	MessageKind string     `json:"message_kind"` // text, audio, system, document
	Sender      string     `json:"sender"`       // candidate, bot

	Content       string  `json:"content"`
	Transcription *string `json:"transcription,omitempty"` // for audio entries
	AttachmentRef *string `json:"attachment_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTextEntry builds a plain text dialogue entry. The creation timestamp is
// assigned here so cache and durable store agree on ordering.
func NewTextEntry(candidateID uuid.UUID, vacancyID *uuid.UUID, sender, content string) DialogueEntry {
	return DialogueEntry{
		ID:          uuid.New(),
		CandidateID: candidateID,
		VacancyID:   vacancyID,
		MessageKind: MessageKindText,
		Sender:      sender,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
}

package db

import (
	"time"

	"github.com/google/uuid"
)

// PromptTemplate is an admin-editable prompt blueprint with {{placeholder}}
// tokens. The interview core consumes templates read-only through the prompt
// resolver cache.
type PromptTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"` // unique key
	Category    string    `json:"category,omitempty"`
	Template    string    `json:"template"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PromptTemplateInput is used when creating or updating a template.
type PromptTemplateInput struct {
	Name        string `json:"name" validate:"required,min=1"`
	Category    string `json:"category,omitempty"`
	Template    string `json:"template" validate:"required,min=1"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
}

// Package telegram is a minimal Bot API client: long-poll updates in,
// plain-text messages out. Only the fields the interview flow reads are
// modeled.
package telegram

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64     `json:"message_id"`
	Chat      Chat      `json:"chat"`
	From      *User     `json:"from,omitempty"`
	Text      string    `json:"text,omitempty"`
	Voice     *Voice    `json:"voice,omitempty"`
	Document  *Document `json:"document,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Voice is an audio answer. The file is referenced, never downloaded here.
type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
}

// Document is an attached file, typically a resume upload.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

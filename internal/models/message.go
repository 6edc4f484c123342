package models

import (
	"time"
)

// Message is a single message inside a conversation. Messages are
// created once (on send or first observation via fetch); only IsRead
// and ReadAt change afterwards, and messages are never deleted on the
// client.
type Message struct {
	// ID is the unique identifier for the message.
	ID string `json:"id"`

	// ConversationID is the conversation this message belongs to.
	ConversationID string `json:"conversation_id"`

	// SenderID identifies the participant who sent the message.
	SenderID string `json:"sender_id"`

	// Content is the message body.
	Content string `json:"content"`

	// IsRead indicates whether the recipient has read the message.
	// Only ever transitions false -> true.
	IsRead bool `json:"is_read"`

	// ReadAt is when the message was read, if it has been.
	ReadAt *time.Time `json:"read_at,omitempty"`

	// CreatedAt is the server-assigned creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Before reports whether m sorts ahead of other in thread order:
// ascending by creation time, ties broken by ID ascending.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// Validate checks the message for required fields.
func (m *Message) Validate() error {
	validation := &ValidationErrors{}
	if m.ID == "" {
		validation.AddMessage("id", "required")
	}
	if m.ConversationID == "" {
		validation.AddMessage("conversation_id", "required")
	}
	if m.SenderID == "" {
		validation.AddMessage("sender_id", "required")
	}
	if m.Content == "" {
		validation.AddMessage("content", "required")
	}
	if m.CreatedAt.IsZero() {
		validation.AddMessage("created_at", "required")
	}
	return validation.Err()
}

// ConversationPage is one page of a conversation's messages as returned
// by the platform API. Pagination is windowed from the newest end:
// offset 0 holds the most recent MessagesLimit messages, offset N the
// next-older batch starting N back from the newest.
type ConversationPage struct {
	// Messages are ascending by creation time within the page.
	Messages []Message `json:"messages"`

	// MessagesTotal is the server-side total message count.
	MessagesTotal int `json:"messages_total"`

	// MessagesOffset echoes the requested offset.
	MessagesOffset int `json:"messages_offset"`

	// MessagesLimit echoes the requested page size.
	MessagesLimit int `json:"messages_limit"`
}

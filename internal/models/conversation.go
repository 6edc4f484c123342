package models

import (
	"time"
)

// ConversationSummary is one row of the conversation list. Summaries
// are never patched field-by-field; the list is replaced wholesale by
// re-fetching.
type ConversationSummary struct {
	// ID is the unique identifier for the conversation.
	ID string `json:"id"`

	// ParentID identifies the parent participant.
	ParentID string `json:"parent_id"`

	// TeacherID identifies the teacher participant.
	TeacherID string `json:"teacher_id"`

	// Subject is an optional conversation subject line.
	Subject string `json:"subject,omitempty"`

	// StudentID optionally scopes the conversation to one student.
	StudentID string `json:"student_id,omitempty"`

	// LastMessagePreview is a short excerpt of the newest message.
	LastMessagePreview string `json:"last_message_preview"`

	// LastMessageAt is when the newest message was sent.
	LastMessageAt time.Time `json:"last_message_at"`

	// UnreadCount is the number of unread messages for the caller.
	UnreadCount int `json:"unread_count"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"created_at"`
}

// ConversationDetail is the payload returned when a conversation is
// created: the summary plus the initial message.
type ConversationDetail struct {
	ConversationSummary
	Messages []Message `json:"messages"`
}

// CreateConversationRequest holds the fields for starting a conversation.
type CreateConversationRequest struct {
	RecipientID    string `json:"recipient_id"`
	StudentID      string `json:"student_id,omitempty"`
	Subject        string `json:"subject,omitempty"`
	InitialMessage string `json:"initial_message"`
}

// Validate checks the request before it goes on the wire.
func (r *CreateConversationRequest) Validate() error {
	validation := &ValidationErrors{}
	if r.RecipientID == "" {
		validation.AddMessage("recipient_id", "required")
	}
	if r.InitialMessage == "" {
		validation.AddMessage("initial_message", "required")
	}
	return validation.Err()
}

// Validate checks the summary for required fields.
func (c *ConversationSummary) Validate() error {
	validation := &ValidationErrors{}
	if c.ID == "" {
		validation.AddMessage("id", "required")
	}
	if c.ParentID == "" {
		validation.AddMessage("parent_id", "required")
	}
	if c.TeacherID == "" {
		validation.AddMessage("teacher_id", "required")
	}
	return validation.Err()
}

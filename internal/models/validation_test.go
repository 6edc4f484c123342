package models

import (
	"strings"
	"testing"
	"time"
)

func TestValidationErrorsEmptyIsNil(t *testing.T) {
	validation := &ValidationErrors{}
	if err := validation.Err(); err != nil {
		t.Fatalf("expected nil for empty validation, got %v", err)
	}
}

func TestValidationErrorsAggregateMessage(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("subject", "required")
	validation.AddMessage("recipient_id", "required")

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "subject: required") {
		t.Errorf("missing first failure in %q", msg)
	}
	if !strings.Contains(msg, "recipient_id: required") {
		t.Errorf("missing second failure in %q", msg)
	}
}

func TestValidationErrorIgnoresEmptyMessage(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("subject", "")
	if err := validation.Err(); err != nil {
		t.Fatalf("empty message must not register, got %v", err)
	}
}

func TestMessageValidate(t *testing.T) {
	msg := Message{
		ID:             "msg-1",
		ConversationID: "conv-a",
		SenderID:       "teacher-1",
		Content:        "hello",
		CreatedAt:      time.Now(),
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}

	msg.Content = ""
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestMessageBeforeOrdersByTimeThenID(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	earlier := Message{ID: "msg-b", CreatedAt: base}
	later := Message{ID: "msg-a", CreatedAt: base.Add(time.Minute)}

	if !earlier.Before(later) {
		t.Error("earlier timestamp must sort first")
	}
	if later.Before(earlier) {
		t.Error("later timestamp must not sort first")
	}

	// Same timestamp falls back to the id.
	tieA := Message{ID: "msg-a", CreatedAt: base}
	tieB := Message{ID: "msg-b", CreatedAt: base}
	if !tieA.Before(tieB) {
		t.Error("id tie-break must order msg-a before msg-b")
	}
}

func TestCreateConversationRequestValidate(t *testing.T) {
	req := CreateConversationRequest{
		RecipientID:    "teacher-1",
		InitialMessage: "hello",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req.RecipientID = ""
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

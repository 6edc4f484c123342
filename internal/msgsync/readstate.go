package msgsync

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
)

// ReadMarker is the slice of the platform API the read-state tracker needs.
type ReadMarker interface {
	MarkConversationRead(ctx context.Context, conversationID string) error
	GetUnreadCount(ctx context.Context) (int, error)
}

// ReadStateTracker marks conversations read and reconciles unread
// counters. The summary counter is zeroed immediately after a
// successful server call, while per-message IsRead flags in the open
// window are deliberately left alone: the corrected copies arrive with
// the next thread refresh. That lag is an accepted eventual-consistency
// trade-off, not a bug.
type ReadStateTracker struct {
	api    ReadMarker
	list   *ConversationListStore
	logger zerolog.Logger
}

// NewReadStateTracker creates a tracker bound to the conversation list.
func NewReadStateTracker(api ReadMarker, list *ConversationListStore) *ReadStateTracker {
	return &ReadStateTracker{
		api:    api,
		list:   list,
		logger: logging.Component("read-state"),
	}
}

// MarkConversationRead marks all unread messages in the conversation
// read on the server, then zeroes the local unread counter.
func (t *ReadStateTracker) MarkConversationRead(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return ErrNoSelection
	}
	if err := t.api.MarkConversationRead(ctx, conversationID); err != nil {
		return err
	}
	if t.list != nil {
		t.list.ClearUnread(conversationID)
	}
	t.logger.Debug().Str("conversation_id", conversationID).Msg("conversation marked read")
	return nil
}

// UnreadTotal polls the aggregate unread count. It is decoupled from
// the list and thread refresh cadence and feeds the persistent badge.
func (t *ReadStateTracker) UnreadTotal(ctx context.Context) (int, error) {
	return t.api.GetUnreadCount(ctx)
}

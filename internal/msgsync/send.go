package msgsync

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

// Sender is the slice of the platform API the send pipeline needs.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, content string) (*models.Message, error)
	CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationDetail, error)
}

// SendPipeline commits outgoing messages. The server-confirmed copy is
// folded back into the thread window by a refresh rather than by
// inserting an unconfirmed local copy; one extra round trip of latency
// buys immunity from ghost and duplicate messages.
type SendPipeline struct {
	api    Sender
	thread *ActiveThreadStore
	list   *ConversationListStore
	logger zerolog.Logger
}

// NewSendPipeline creates a pipeline bound to the thread and list stores.
func NewSendPipeline(api Sender, thread *ActiveThreadStore, list *ConversationListStore) *SendPipeline {
	return &SendPipeline{
		api:    api,
		thread: thread,
		list:   list,
		logger: logging.Component("send"),
	}
}

// Send commits a message to the open conversation. On success the
// thread is refreshed to pull the server-timestamped copy, then the
// conversation list is reset so the preview and ordering catch up.
func (p *SendPipeline) Send(ctx context.Context, content string) (models.Message, error) {
	conversationID := p.thread.ConversationID()
	if conversationID == "" {
		return models.Message{}, ErrNoSelection
	}

	msg, err := p.api.SendMessage(ctx, conversationID, content)
	if err != nil {
		return models.Message{}, err
	}

	if err := p.thread.Refresh(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("post-send refresh failed; next tick will catch up")
	}
	if err := p.list.Poll(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("post-send list reset failed")
	}
	return *msg, nil
}

// Start creates a new conversation with its initial message and opens it.
func (p *SendPipeline) Start(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationDetail, error) {
	detail, err := p.api.CreateConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.thread.Select(ctx, detail.ID); err != nil {
		p.logger.Warn().Err(err).Str("conversation_id", detail.ID).Msg("select after create failed")
	}
	return detail, nil
}

package msgsync

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

// DefaultPageSize is the page size used for both the conversation list
// and thread windows unless configured otherwise.
const DefaultPageSize = 30

// ConversationLister is the slice of the platform API the list store needs.
type ConversationLister interface {
	ListConversations(ctx context.Context, offset, limit int) ([]models.ConversationSummary, error)
}

// ConversationListStore is the paginated cache of conversation
// summaries. A reset replaces the whole list; an append extends it at
// the cursor. Resets are idempotent replacements, so overlapping calls
// need no serialization beyond the rule that a reset supersedes any
// in-flight append.
type ConversationListStore struct {
	api      ConversationLister
	pageSize int
	logger   zerolog.Logger

	mu         sync.Mutex
	items      []models.ConversationSummary
	cursor     int
	hasMore    bool
	generation uint64
	lastErr    error
}

// NewConversationListStore creates an empty list store.
func NewConversationListStore(api ConversationLister, pageSize int) *ConversationListStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ConversationListStore{
		api:      api,
		pageSize: pageSize,
		logger:   logging.Component("conversation-list"),
	}
}

// LoadPage fetches one page of conversations. With reset it fetches at
// offset 0 and replaces the list; otherwise it fetches at the current
// cursor and appends. On failure the prior list is left untouched, the
// error flag is set, and the cursor is not advanced, so a retry is safe.
func (s *ConversationListStore) LoadPage(ctx context.Context, reset bool) error {
	return s.loadPage(ctx, reset, false)
}

// Poll is the background variant of LoadPage(reset): failures are
// logged and never surfaced through the error flag.
func (s *ConversationListStore) Poll(ctx context.Context) error {
	return s.loadPage(ctx, true, true)
}

func (s *ConversationListStore) loadPage(ctx context.Context, reset, silent bool) error {
	s.mu.Lock()
	offset := s.cursor
	if reset {
		offset = 0
	}
	gen := s.generation
	s.mu.Unlock()

	page, err := s.api.ListConversations(ctx, offset, s.pageSize)
	if err != nil {
		if silent {
			s.logger.Warn().Err(err).Msg("conversation list poll failed")
			return err
		}
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reset {
		// A reset always supersedes whatever was in flight.
		s.generation++
		s.items = append([]models.ConversationSummary(nil), page...)
		s.cursor = len(page)
	} else {
		if gen != s.generation {
			// A reset landed while this append was in flight; its page
			// belongs to a list that no longer exists.
			return nil
		}
		s.items = append(s.items, page...)
		s.cursor += len(page)
	}
	s.hasMore = len(page) == s.pageSize
	if !silent {
		s.lastErr = nil
	}
	return nil
}

// Conversations returns a snapshot of the cached summaries.
func (s *ConversationListStore) Conversations() []models.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ConversationSummary(nil), s.items...)
}

// HasMore reports whether another page is expected to exist.
func (s *ConversationListStore) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Err returns the error flag from the last foreground load, if any.
func (s *ConversationListStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr dismisses the error flag.
func (s *ConversationListStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// ClearUnread zeroes the unread counter on the matching summary. Used
// by the read-state tracker after a successful mark-read call; the
// authoritative counts arrive with the next list fetch.
func (s *ConversationListStore) ClearUnread(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == conversationID {
			s.items[i].UnreadCount = 0
			return
		}
	}
}

// ReplaceAll seeds the store wholesale, e.g. from the snapshot cache at
// startup. The cursor is set as if the seed had been paged in.
func (s *ConversationListStore) ReplaceAll(items []models.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.items = append([]models.ConversationSummary(nil), items...)
	s.cursor = len(items)
	s.hasMore = len(items) >= s.pageSize
}

package msgsync

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

// Phase is the lifecycle state of the active thread.
type Phase string

const (
	PhaseEmpty        Phase = "empty"
	PhaseLoading      Phase = "loading"
	PhaseReady        Phase = "ready"
	PhaseRefreshing   Phase = "refreshing"
	PhaseLoadingOlder Phase = "loading-older"
	PhaseError        Phase = "error"
)

// ErrNoSelection is returned by operations that require an open conversation.
var ErrNoSelection = errors.New("no conversation selected")

// ThreadFetcher is the slice of the platform API the thread store needs.
type ThreadFetcher interface {
	GetConversation(ctx context.Context, id string, offset, limit int) (*models.ConversationPage, error)
}

// ActiveThreadStore holds the currently open conversation's thread
// window: an ascending-by-(time, id) message slice plus the pagination
// bookkeeping for "load older".
//
// Every fetch captures the store's generation before suspending; the
// generation is bumped on (re)selection and teardown, and a completion
// whose generation no longer matches is discarded. That staleness guard
// is what keeps a slow response for a conversation the user has left
// from overwriting freshly loaded state. Window content itself is
// convergent under Merge regardless of completion order; the offset is
// recomputed from the window after every commit, so it always equals
// the number of distinct messages loaded.
type ActiveThreadStore struct {
	api      ThreadFetcher
	pageSize int
	reader   *ReadStateTracker
	list     *ConversationListStore
	logger   zerolog.Logger

	mu             sync.Mutex
	conversationID string
	generation     uint64
	phase          Phase
	window         []models.Message
	messageOffset  int
	messagesTotal  int
	lastErr        error
}

// NewActiveThreadStore creates an empty thread store.
func NewActiveThreadStore(api ThreadFetcher, pageSize int, reader *ReadStateTracker, list *ConversationListStore) *ActiveThreadStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ActiveThreadStore{
		api:      api,
		pageSize: pageSize,
		reader:   reader,
		list:     list,
		logger:   logging.Component("active-thread"),
		phase:    PhaseEmpty,
	}
}

// Select opens a conversation: the window is replaced wholesale with
// the newest page. On success the conversation is marked read and,
// only after that call resolves, the conversation list is reset so the
// unread badge never shows a stale flash. On failure the store is left
// in the error phase with an empty window.
func (s *ActiveThreadStore) Select(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoSelection
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.conversationID = id
	s.phase = PhaseLoading
	s.window = nil
	s.messageOffset = 0
	s.messagesTotal = 0
	s.lastErr = nil
	s.mu.Unlock()

	page, err := s.api.GetConversation(ctx, id, 0, s.pageSize)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.phase = PhaseError
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.window = Merge(page.Messages, nil)
	s.messageOffset = len(s.window)
	s.messagesTotal = page.MessagesTotal
	s.phase = PhaseReady
	s.mu.Unlock()

	if s.reader != nil {
		if err := s.reader.MarkConversationRead(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", id).Msg("mark read failed")
			return nil
		}
		if s.list != nil {
			if err := s.list.Poll(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("list reset after mark read failed")
			}
		}
	}
	return nil
}

// Refresh silently re-fetches the newest page and merges it into the
// window. Failures leave the window untouched; the next scheduled tick
// retries. Safe to call concurrently with itself or with LoadOlder:
// content converges through Merge and the offset is recomputed from
// the merged window.
func (s *ActiveThreadStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	id := s.conversationID
	gen := s.generation
	switch s.phase {
	case PhaseReady, PhaseRefreshing, PhaseLoadingOlder:
	default:
		s.mu.Unlock()
		return nil
	}
	if s.phase == PhaseReady {
		s.phase = PhaseRefreshing
	}
	s.mu.Unlock()

	page, err := s.api.GetConversation(ctx, id, 0, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	if s.phase == PhaseRefreshing {
		s.phase = PhaseReady
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("conversation_id", id).Msg("background refresh failed")
		return err
	}
	s.window = Merge(s.window, page.Messages)
	s.messageOffset = len(s.window)
	s.messagesTotal = page.MessagesTotal
	return nil
}

// LoadOlder extends the window backwards by one page. It is a no-op
// when everything is already loaded or while another load-older is in
// flight. Foreground failures surface an error and change nothing.
func (s *ActiveThreadStore) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if s.conversationID == "" {
		s.mu.Unlock()
		return ErrNoSelection
	}
	if s.phase != PhaseReady && s.phase != PhaseRefreshing {
		s.mu.Unlock()
		return nil
	}
	if s.messageOffset >= s.messagesTotal {
		s.mu.Unlock()
		return nil
	}
	id := s.conversationID
	gen := s.generation
	offset := s.messageOffset
	s.phase = PhaseLoadingOlder
	s.mu.Unlock()

	page, err := s.api.GetConversation(ctx, id, offset, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.phase = PhaseReady
	if err != nil {
		s.lastErr = err
		return err
	}
	s.window = Merge(s.window, page.Messages)
	s.messageOffset = len(s.window)
	s.messagesTotal = page.MessagesTotal
	return nil
}

// Clear tears the thread down, e.g. on navigation away. Any in-flight
// fetch for the old conversation is discarded when it completes.
func (s *ActiveThreadStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.conversationID = ""
	s.phase = PhaseEmpty
	s.window = nil
	s.messageOffset = 0
	s.messagesTotal = 0
	s.lastErr = nil
}

// Seed pre-populates the window from the snapshot cache for instant
// rendering; the next Select or Refresh replaces it with live data.
func (s *ActiveThreadStore) Seed(id string, messages []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.conversationID = id
	s.window = Merge(messages, nil)
	s.messageOffset = len(s.window)
	s.messagesTotal = len(s.window)
	s.phase = PhaseReady
	s.lastErr = nil
}

// Window returns a snapshot of the loaded messages in thread order.
func (s *ActiveThreadStore) Window() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.window...)
}

// ConversationID returns the selected conversation, or "".
func (s *ActiveThreadStore) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Phase returns the current lifecycle phase.
func (s *ActiveThreadStore) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// MessageOffset returns the pagination cursor: the count of distinct
// messages loaded from the newest end.
func (s *ActiveThreadStore) MessageOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageOffset
}

// MessagesTotal returns the last known server-side message count.
func (s *ActiveThreadStore) MessagesTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesTotal
}

// HasMoreOlder reports whether older messages remain on the server.
func (s *ActiveThreadStore) HasMoreOlder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageOffset < s.messagesTotal
}

// Err returns the error from the last failed foreground operation.
func (s *ActiveThreadStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr dismisses the error flag.
func (s *ActiveThreadStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if s.phase == PhaseError {
		s.phase = PhaseEmpty
	}
}

package msgsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

// Scheduler errors.
var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
	ErrSchedulerNotRunning     = errors.New("scheduler not running")
)

// SchedulerConfig contains configuration for the polling scheduler.
type SchedulerConfig struct {
	// ListInterval is how often the conversation list is reset.
	// Default: 30s
	ListInterval time.Duration

	// ThreadInterval is how often the open thread is refreshed.
	// Default: 15s
	ThreadInterval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ListInterval:   30 * time.Second,
		ThreadInterval: 15 * time.Second,
	}
}

// Snapshotter persists the latest committed state after successful
// background ticks so the client can render offline at next startup.
type Snapshotter interface {
	SaveConversations(ctx context.Context, items []models.ConversationSummary) error
	SaveMessages(ctx context.Context, conversationID string, messages []models.Message) error
}

// Scheduler owns the two background timers: the conversation-list tick
// and the open-thread tick. The thread loop exists only while a
// conversation is selected, and the loop for a previous conversation is
// always stopped and joined before the next one starts, so a stale
// timer can never overwrite freshly loaded state. Tick failures are
// logged and waited out; state is never mutated on a failed tick.
type Scheduler struct {
	config   SchedulerConfig
	list     *ConversationListStore
	thread   *ActiveThreadStore
	snapshot Snapshotter
	logger   zerolog.Logger

	mu           sync.Mutex
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	threadCancel context.CancelFunc
	threadDone   chan struct{}
}

// NewScheduler creates a polling scheduler. snapshot may be nil.
func NewScheduler(config SchedulerConfig, list *ConversationListStore, thread *ActiveThreadStore, snapshot Snapshotter) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.ListInterval <= 0 {
		config.ListInterval = defaults.ListInterval
	}
	if config.ThreadInterval <= 0 {
		config.ThreadInterval = defaults.ThreadInterval
	}
	return &Scheduler{
		config:   config,
		list:     list,
		thread:   thread,
		snapshot: snapshot,
		logger:   logging.Component("scheduler"),
	}
}

// Start begins the conversation-list loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info().
		Dur("list_interval", s.config.ListInterval).
		Dur("thread_interval", s.config.ThreadInterval).
		Msg("polling scheduler starting")

	s.wg.Add(1)
	go s.listLoop(s.ctx)
	return nil
}

// Stop halts all loops and waits for them to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.stopThreadLoopLocked()
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("polling scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SelectConversation opens a conversation and moves the thread loop to
// it. The old loop is stopped and joined before the new one starts.
// The select itself is a foreground operation: its error is returned
// and no thread loop starts for a conversation that failed to load.
func (s *Scheduler) SelectConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.stopThreadLoopLocked()
	s.mu.Unlock()

	if err := s.thread.Select(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrSchedulerNotRunning
	}
	loopCtx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.threadCancel = cancel
	s.threadDone = done
	s.wg.Add(1)
	go s.threadLoop(loopCtx, done)
	return nil
}

// ClearSelection stops the thread loop and empties the thread store.
func (s *Scheduler) ClearSelection() {
	s.mu.Lock()
	s.stopThreadLoopLocked()
	s.mu.Unlock()
	s.thread.Clear()
}

// stopThreadLoopLocked cancels the active thread loop, if any, and
// waits for it to exit. Callers must hold s.mu.
func (s *Scheduler) stopThreadLoopLocked() {
	if s.threadCancel == nil {
		return
	}
	s.threadCancel()
	<-s.threadDone
	s.threadCancel = nil
	s.threadDone = nil
}

func (s *Scheduler) listLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.ListInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.listTick(ctx)
		}
	}
}

func (s *Scheduler) listTick(ctx context.Context) {
	if err := s.list.Poll(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Msg("list tick failed")
		return
	}
	s.saveListSnapshot(ctx)
}

func (s *Scheduler) threadLoop(ctx context.Context, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	ticker := time.NewTicker(s.config.ThreadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.threadTick(ctx)
		}
	}
}

func (s *Scheduler) threadTick(ctx context.Context) {
	if err := s.thread.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Msg("thread tick failed")
		return
	}
	s.saveThreadSnapshot(ctx)
}

func (s *Scheduler) saveListSnapshot(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.SaveConversations(ctx, s.list.Conversations()); err != nil {
		s.logger.Warn().Err(err).Msg("conversation snapshot failed")
	}
}

func (s *Scheduler) saveThreadSnapshot(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	id := s.thread.ConversationID()
	if id == "" {
		return
	}
	if err := s.snapshot.SaveMessages(ctx, id, s.thread.Window()); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", id).Msg("thread snapshot failed")
	}
}

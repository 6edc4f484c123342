// Package tui implements the two-pane terminal UI: a conversation list
// on the left and the open thread with a compose line on the right.
// The sync engine does the data work; the UI only reads store state
// and issues foreground operations.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
	"github.com/classline/classline/internal/msgsync"
)

const uiRefreshInterval = time.Second

type focusArea int

const (
	focusList focusArea = iota
	focusThread
	focusCompose
)

// ThreadCache is the slice of the snapshot cache the UI needs: cached
// windows seed the thread pane before the live fetch lands, and keep
// it usable when that fetch fails.
type ThreadCache interface {
	LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// Config wires the sync engine into the UI.
type Config struct {
	List      *msgsync.ConversationListStore
	Thread    *msgsync.ActiveThreadStore
	Send      *msgsync.SendPipeline
	Scheduler *msgsync.Scheduler
	Cache     ThreadCache

	// SelfID is the signed-in user, used to mark own messages.
	SelfID string

	Theme Theme
}

type uiTickMsg struct{}

// opDoneMsg reports a finished foreground operation. Store state is
// read back from the stores themselves; only the error travels here.
type opDoneMsg struct {
	op  string
	err error
}

type Model struct {
	cfg    Config
	styles styleSet
	logger zerolog.Logger

	width  int
	height int

	focus    focusArea
	cursor   int
	compose  string
	errLine  string
	quitting bool
}

func NewModel(cfg Config) *Model {
	theme := cfg.Theme
	if theme == (Theme{}) {
		theme = DefaultTheme
	}
	return &Model{
		cfg:    cfg,
		styles: newStyleSet(theme),
		logger: logging.Component("tui"),
	}
}

// Run starts the background scheduler and runs the UI until exit.
func Run(cfg Config) error {
	model := NewModel(cfg)

	if cfg.Scheduler != nil {
		if err := cfg.Scheduler.Start(context.Background()); err != nil {
			return err
		}
		defer func() { _ = cfg.Scheduler.Stop() }()
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func uiTickCmd() tea.Cmd {
	return tea.Tick(uiRefreshInterval, func(time.Time) tea.Msg { return uiTickMsg{} })
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadListCmd(), uiTickCmd())
}

func (m *Model) loadListCmd() tea.Cmd {
	list := m.cfg.List
	return func() tea.Msg {
		return opDoneMsg{op: "load-list", err: list.LoadPage(context.Background(), true)}
	}
}

func (m *Model) selectCmd(id string) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		ctx := context.Background()
		seedFromCache(ctx, cfg, id)

		var err error
		if cfg.Scheduler != nil && cfg.Scheduler.IsRunning() {
			err = cfg.Scheduler.SelectConversation(ctx, id)
		} else {
			err = cfg.Thread.Select(ctx, id)
		}
		if err != nil {
			// A failed select empties the window; fall back to the last
			// cached state so the pane stays usable offline.
			seedFromCache(ctx, cfg, id)
		}
		return opDoneMsg{op: "select", err: err}
	}
}

func seedFromCache(ctx context.Context, cfg Config, id string) bool {
	if cfg.Cache == nil {
		return false
	}
	messages, err := cfg.Cache.LoadMessages(ctx, id)
	if err != nil || len(messages) == 0 {
		return false
	}
	cfg.Thread.Seed(id, messages)
	return true
}

func (m *Model) loadOlderCmd() tea.Cmd {
	thread := m.cfg.Thread
	return func() tea.Msg {
		return opDoneMsg{op: "load-older", err: thread.LoadOlder(context.Background())}
	}
}

func (m *Model) sendCmd(content string) tea.Cmd {
	send := m.cfg.Send
	return func() tea.Msg {
		_, err := send.Send(context.Background(), content)
		return opDoneMsg{op: "send", err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case uiTickMsg:
		m.clampCursor()
		return m, uiTickCmd()

	case opDoneMsg:
		if typed.err != nil {
			m.errLine = typed.err.Error()
			m.logger.Debug().Err(typed.err).Str("op", typed.op).Msg("foreground operation failed")
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.focus == focusCompose {
		return m.handleComposeKey(key)
	}

	switch key.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.errLine != "" {
			m.errLine = ""
			m.cfg.List.ClearErr()
			m.cfg.Thread.ClearErr()
			return m, nil
		}
		if m.focus == focusThread {
			m.focus = focusList
		}
		return m, nil
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "enter":
		if m.focus == focusList {
			if id := m.selectedConversationID(); id != "" {
				m.focus = focusThread
				return m, m.selectCmd(id)
			}
		}
		return m, nil
	case "o":
		if m.cfg.Thread.HasMoreOlder() {
			return m, m.loadOlderCmd()
		}
		return m, nil
	case "n":
		if m.cfg.List.HasMore() {
			list := m.cfg.List
			return m, func() tea.Msg {
				return opDoneMsg{op: "load-more", err: list.LoadPage(context.Background(), false)}
			}
		}
		return m, nil
	case "r":
		if m.cfg.Thread.ConversationID() != "" {
			thread := m.cfg.Thread
			return m, func() tea.Msg {
				return opDoneMsg{op: "refresh", err: thread.Refresh(context.Background())}
			}
		}
		return m, m.loadListCmd()
	case "i", "tab":
		if m.cfg.Thread.ConversationID() != "" {
			m.focus = focusCompose
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleComposeKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.focus = focusThread
		return m, nil
	case tea.KeyEnter:
		content := strings.TrimSpace(m.compose)
		if content == "" {
			return m, nil
		}
		m.compose = ""
		m.focus = focusThread
		return m, m.sendCmd(content)
	case tea.KeyBackspace:
		if len(m.compose) > 0 {
			runes := []rune(m.compose)
			m.compose = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.compose += " "
		return m, nil
	case tea.KeyRunes:
		m.compose += string(key.Runes)
		return m, nil
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	items := m.cfg.List.Conversations()
	if len(items) == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	count := len(m.cfg.List.Conversations())
	if count == 0 {
		m.cursor = 0
		return
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= count {
		m.cursor = count - 1
	}
}

func (m *Model) selectedConversationID() string {
	items := m.cfg.List.Conversations()
	if m.cursor < 0 || m.cursor >= len(items) {
		return ""
	}
	return items[m.cursor].ID
}

// currentError surfaces foreground errors from the stores or the last
// failed UI operation, whichever is present.
func (m *Model) currentError() string {
	if m.errLine != "" {
		return m.errLine
	}
	if err := m.cfg.Thread.Err(); err != nil {
		return err.Error()
	}
	if err := m.cfg.List.Err(); err != nil {
		return err.Error()
	}
	return ""
}

func (m *Model) isOwn(msg models.Message) bool {
	return m.cfg.SelfID != "" && msg.SenderID == m.cfg.SelfID
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/classline/classline/internal/msgsync"
)

const minListWidth = 28

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	listWidth := m.width / 3
	if listWidth < minListWidth {
		listWidth = minListWidth
	}
	threadWidth := m.width - listWidth - 4
	paneHeight := m.height - 3

	listPane := m.renderListPane(listWidth, paneHeight)
	threadPane := m.renderThreadPane(threadWidth, paneHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, listPane, threadPane)
	return body + "\n" + m.renderFooter()
}

func (m *Model) paneStyle(active bool) lipgloss.Style {
	if active {
		return m.styles.activePane
	}
	return m.styles.inactivePane
}

func (m *Model) renderListPane(width, height int) string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Conversations"))
	b.WriteByte('\n')

	items := m.cfg.List.Conversations()
	if len(items) == 0 {
		b.WriteString(m.styles.muted.Render("no conversations"))
	}
	visible := height - 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(items) && i < start+visible; i++ {
		item := items[i]
		line := truncateLine(item.Subject, width-8)
		if line == "" {
			line = truncateLine(item.LastMessagePreview, width-8)
		}
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		rendered := prefix + line
		if item.UnreadCount > 0 {
			rendered = m.styles.unread.Render(fmt.Sprintf("%s (%d)", rendered, item.UnreadCount))
		} else if i == m.cursor {
			rendered = m.styles.selected.Render(rendered)
		}
		b.WriteString(rendered)
		b.WriteByte('\n')
	}
	if m.cfg.List.HasMore() {
		b.WriteString(m.styles.muted.Render("… more (n)"))
	}

	return m.paneStyle(m.focus == focusList).
		Width(width).Height(height).
		Render(b.String())
}

func (m *Model) renderThreadPane(width, height int) string {
	var b strings.Builder
	thread := m.cfg.Thread

	switch thread.Phase() {
	case msgsync.PhaseEmpty:
		b.WriteString(m.styles.muted.Render("select a conversation"))
	case msgsync.PhaseLoading:
		b.WriteString(m.styles.muted.Render("loading…"))
	default:
		window := thread.Window()
		header := fmt.Sprintf("%d of %d messages", len(window), thread.MessagesTotal())
		if thread.HasMoreOlder() {
			header += "  (o: load older)"
		}
		b.WriteString(m.styles.title.Render(header))
		b.WriteString("\n\n")

		// Show the newest messages that fit; older ones scroll off the top.
		visible := (height - 4) / 2
		if visible < 1 {
			visible = 1
		}
		start := 0
		if len(window) > visible {
			start = len(window) - visible
		}
		for _, msg := range window[start:] {
			sender := m.styles.otherSender
			if m.isOwn(msg) {
				sender = m.styles.ownSender
			}
			marker := " "
			if !msg.IsRead {
				marker = m.styles.unread.Render("*")
			}
			b.WriteString(fmt.Sprintf("%s %s %s\n", marker,
				sender.Render(msg.SenderID),
				m.styles.muted.Render(msg.CreatedAt.Local().Format("Jan 2 15:04"))))
			b.WriteString("  " + truncateLine(msg.Content, width-4) + "\n")
		}
	}

	if thread.ConversationID() != "" {
		b.WriteByte('\n')
		prompt := "i: compose"
		if m.focus == focusCompose {
			prompt = "> " + m.compose + "█"
		}
		b.WriteString(m.styles.compose.Render(prompt))
	}

	return m.paneStyle(m.focus != focusList).
		Width(width).Height(height).
		Render(b.String())
}

func (m *Model) renderFooter() string {
	if errText := m.currentError(); errText != "" {
		return m.styles.errorLine.Render("error: " + errText + "  (esc to dismiss)")
	}
	return m.styles.muted.Render("j/k: move  enter: open  o: older  r: refresh  i: compose  q: quit")
}

func truncateLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

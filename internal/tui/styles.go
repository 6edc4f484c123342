package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color palette for the two-pane layout.
type Theme struct {
	Foreground   string
	Muted        string
	Accent       string
	Unread       string
	Error        string
	ActivePane   string
	InactivePane string
	OwnMessage   string
	OtherMessage string
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Foreground:   "252",
	Muted:        "245",
	Accent:       "75",
	Unread:       "220",
	Error:        "203",
	ActivePane:   "75",
	InactivePane: "240",
	OwnMessage:   "81",
	OtherMessage: "147",
}

type styleSet struct {
	activePane   lipgloss.Style
	inactivePane lipgloss.Style
	title        lipgloss.Style
	muted        lipgloss.Style
	selected     lipgloss.Style
	unread       lipgloss.Style
	errorLine    lipgloss.Style
	ownSender    lipgloss.Style
	otherSender  lipgloss.Style
	compose      lipgloss.Style
}

func newStyleSet(theme Theme) styleSet {
	return styleSet{
		activePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.ActivePane)),
		inactivePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.InactivePane)),
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Accent)),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)),
		selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Accent)),
		unread:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Unread)),
		errorLine:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Error)),
		ownSender:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.OwnMessage)),
		otherSender: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.OtherMessage)),
		compose:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Foreground)),
	}
}

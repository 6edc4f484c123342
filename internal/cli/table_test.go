package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, []string{"ID", "SUBJECT"}, [][]string{
		{"conv-a", "Homework"},
		{"conv-long-id", "Trip"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Index(lines[1], "Homework"), strings.Index(lines[2], "Trip"),
		"cells in one column must start at the same offset")
}

func TestWriteTableEmptyHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, nil, nil))
	require.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "line one line two", truncate("line one\nline two", 40))
	out := truncate("a very long subject line indeed", 10)
	require.True(t, strings.HasSuffix(out, "…"))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "-", formatRelative(time.Time{}, now))
	require.Equal(t, "just now", formatRelative(now.Add(-30*time.Second), now))
	require.Equal(t, "5m ago", formatRelative(now.Add(-5*time.Minute), now))
	require.Equal(t, "3h ago", formatRelative(now.Add(-3*time.Hour), now))
	require.Equal(t, "2d ago", formatRelative(now.Add(-48*time.Hour), now))
	require.Contains(t, formatRelative(now.Add(-30*24*time.Hour), now), "2026-")
}

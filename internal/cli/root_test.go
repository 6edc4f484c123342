package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd("test")
	require.Equal(t, "classline", root.Use)

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, expected := range []string{"conversations", "thread", "send", "start", "unread", "watch"} {
		require.True(t, names[expected], "missing subcommand %s", expected)
	}
}

func TestRootCommandSilencesCobraNoise(t *testing.T) {
	root := newRootCmd("test")
	require.True(t, root.SilenceUsage)
	require.True(t, root.SilenceErrors)
}

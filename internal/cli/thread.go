package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/classline/classline/internal/models"
)

func newThreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread <conversation-id>",
		Short: "Show a conversation thread and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE:  runThread,
	}
	cmd.Flags().Int("older", 0, "Number of additional older pages to load")
	return cmd
}

func runThread(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	fromCache := false
	if err := app.Thread.Select(ctx, args[0]); err != nil {
		// A failed select empties the window, so re-seed from the
		// snapshot cache and fall back to the last known state.
		if !app.SeedThread(ctx, args[0]) {
			return fmt.Errorf("failed to open conversation: %w", err)
		}
		fromCache = true
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: live fetch failed (%v), showing cached messages\n", err)
	}

	older, _ := cmd.Flags().GetInt("older")
	if fromCache {
		older = 0
	}
	for i := 0; i < older && app.Thread.HasMoreOlder(); i++ {
		if err := app.Thread.LoadOlder(ctx); err != nil {
			return fmt.Errorf("failed to load older messages: %w", err)
		}
	}
	if !fromCache {
		app.snapshotThread(ctx)
	}

	window := app.Thread.Window()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(window)
	}

	out := cmd.OutOrStdout()
	total := app.Thread.MessagesTotal()
	fmt.Fprintf(out, "Conversation %s — showing %d of %d messages\n", args[0], len(window), total)
	if app.Thread.HasMoreOlder() {
		fmt.Fprintln(out, "(older messages available, use --older)")
	}
	fmt.Fprintln(out)
	for _, msg := range window {
		printMessage(out, msg)
	}
	return nil
}

func printMessage(out io.Writer, msg models.Message) {
	marker := " "
	if !msg.IsRead {
		marker = "*"
	}
	fmt.Fprintf(out, "%s %s  %s\n", marker, msg.CreatedAt.Local().Format("2006-01-02 15:04"), msg.SenderID)
	fmt.Fprintf(out, "    %s\n\n", msg.Content)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classline/classline/internal/msgsync"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new messages and print them until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().String("thread", "", "Also keep this conversation refreshed and print its new messages")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var snapshot msgsync.Snapshotter
	if app.Cache != nil {
		snapshot = app.Cache
	}
	scheduler := msgsync.NewScheduler(msgsync.SchedulerConfig{
		ListInterval:   app.Config.Sync.ListInterval,
		ThreadInterval: app.Config.Sync.ThreadInterval,
	}, app.List, app.Thread, snapshot)

	app.SeedFromCache(ctx)
	if err := app.List.LoadPage(ctx, true); err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = scheduler.Stop() }()

	if threadID, _ := cmd.Flags().GetString("thread"); threadID != "" {
		if err := scheduler.SelectConversation(ctx, threadID); err != nil {
			return fmt.Errorf("failed to open conversation: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Watching for new messages. Press Ctrl+C to stop.")
	watchLoop(ctx, out, app)
	fmt.Fprintln(out, "Stopped.")
	return nil
}

// watchLoop diffs store state once a second and prints what changed:
// unread bumps on the conversation list and, when a thread is open,
// every message that folds into its window.
func watchLoop(ctx context.Context, out io.Writer, app *App) {
	unreadSeen := make(map[string]int)
	for _, item := range app.List.Conversations() {
		unreadSeen[item.ID] = item.UnreadCount
	}
	lastMsgID := ""
	if window := app.Thread.Window(); len(window) > 0 {
		lastMsgID = window[len(window)-1].ID
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, item := range app.List.Conversations() {
				if item.UnreadCount > unreadSeen[item.ID] {
					subject := item.Subject
					if subject == "" {
						subject = item.ID
					}
					fmt.Fprintf(out, "[%s] new message in %q: %s\n",
						time.Now().Format("15:04:05"), subject, truncate(item.LastMessagePreview, 60))
				}
				unreadSeen[item.ID] = item.UnreadCount
			}

			window := app.Thread.Window()
			printFrom := len(window)
			for i := len(window) - 1; i >= 0; i-- {
				if window[i].ID == lastMsgID {
					printFrom = i + 1
					break
				}
				printFrom = i
			}
			if lastMsgID == "" {
				printFrom = 0
			}
			for _, msg := range window[printFrom:] {
				fmt.Fprintf(out, "[%s] %s: %s\n",
					msg.CreatedAt.Local().Format("15:04:05"), msg.SenderID, msg.Content)
			}
			if len(window) > 0 {
				lastMsgID = window[len(window)-1].ID
			}
		}
	}
}

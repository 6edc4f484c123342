package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest activity first",
		RunE:    runConversations,
	}
	cmd.Flags().Bool("all", false, "Page through the entire list instead of the first page")
	return cmd
}

func runConversations(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")

	if err := app.List.LoadPage(ctx, true); err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	for all && app.List.HasMore() {
		if err := app.List.LoadPage(ctx, false); err != nil {
			return fmt.Errorf("failed to load conversations: %w", err)
		}
	}
	app.snapshotList(ctx)

	items := app.List.Conversations()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		unread := ""
		if item.UnreadCount > 0 {
			unread = strconv.Itoa(item.UnreadCount)
		}
		rows = append(rows, []string{
			item.ID,
			truncate(item.Subject, 32),
			unread,
			truncate(item.LastMessagePreview, 48),
			formatRelative(item.LastMessageAt, now),
		})
	}
	if err := writeTable(cmd.OutOrStdout(), []string{"ID", "SUBJECT", "UNREAD", "LAST MESSAGE", "WHEN"}, rows); err != nil {
		return err
	}
	if !all && app.List.HasMore() {
		fmt.Fprintln(cmd.OutOrStdout(), "\n(more conversations available, use --all)")
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Show the total unread message count",
		Args:  cobra.NoArgs,
		RunE:  runUnread,
	}
}

func runUnread(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	total, err := app.Reader.UnreadTotal(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch unread count: %w", err)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int{"unread": total})
	}
	fmt.Fprintln(cmd.OutOrStdout(), total)
	return nil
}

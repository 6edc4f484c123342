package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classline/classline/internal/models"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <message>",
		Short: "Send a message in an existing conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSend,
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		return fmt.Errorf("message content required")
	}

	if err := app.Thread.Select(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	sent, err := app.Send.Send(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	app.snapshotThread(ctx)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(sent)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to conversation %s\n", sent.ID, args[0])
	return nil
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <message>",
		Short: "Start a new conversation with a teacher",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStart,
	}
	cmd.Flags().String("to", "", "Recipient user id (required)")
	cmd.Flags().String("student", "", "Student the conversation concerns")
	cmd.Flags().String("subject", "", "Conversation subject")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	recipient, _ := cmd.Flags().GetString("to")
	student, _ := cmd.Flags().GetString("student")
	subject, _ := cmd.Flags().GetString("subject")

	req := models.CreateConversationRequest{
		RecipientID:    recipient,
		StudentID:      student,
		Subject:        subject,
		InitialMessage: strings.TrimSpace(strings.Join(args, " ")),
	}
	detail, err := app.Send.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}
	app.snapshotThread(ctx)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(detail)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started conversation %s\n", detail.ID)
	return nil
}

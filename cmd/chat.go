package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mlevasseur/lessonplan-cli/internal/application"
	"github.com/spf13/cobra"
)

func newChatCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the AI about the open plan",
	}

	cmd.AddCommand(newChatSendCmd(app), newChatHistoryCmd(app), newChatClearCmd(app))

	return cmd
}

func newChatSendCmd(app *app) *cobra.Command {
	var attachments []string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a chat message about the open plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			text := strings.Join(args, " ")

			// The user sees their own message immediately; delivery
			// resolves while the spinner runs.
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "you: %s\n", text)

			var result application.SendResult
			err := runChatTurnSpinner(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context) error {
				var sendErr error
				result, sendErr = app.planner.SendMessage(ctx, text, attachments)
				return sendErr
			})
			if err != nil {
				return err
			}

			for _, name := range result.SkippedAttachments {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: attachment %s could not be uploaded and was skipped\n", name)
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ai: %s\n", result.Reply.Content); err != nil {
				return err
			}

			if result.PlanUpdated {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), "(plan updated)"); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&attachments, "attach", nil, "File to upload with the message; repeatable")

	return cmd
}

func newChatHistoryCmd(app *app) *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the open plan's conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			workspace, err := app.planner.Workspace(cmd.Context())
			if err != nil {
				return err
			}
			if workspace.ActivePlan == nil {
				return fmt.Errorf("no plan is open, run `lp plan open` first")
			}

			opts := renderOptionsForWorkspace(app, workspace)
			opts.TranscriptTail = tail

			rendered, err := app.renderer(documentForTranscript(workspace.Transcript), opts)
			if err != nil {
				return fmt.Errorf("render transcript: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 0, "Show only the last N messages")

	return cmd
}

func newChatClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the open plan's conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			if err := app.planner.ClearTranscript(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cleared conversation.")
			return err
		},
	}
}

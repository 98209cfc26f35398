package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	workspaceadapter "github.com/mlevasseur/lessonplan-cli/internal/adapters/render/workspace"
	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/spf13/cobra"
)

// newStatusCmd gives a one-screen overview: session, cached plans, and the
// open plan with its transcript. Works offline from the local workspace
// except for the session resume.
func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, cached plans, and the open plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.session.Resume(cmd.Context())

			workspace, err := app.planner.Workspace(cmd.Context())
			if err != nil {
				return err
			}

			doc := workspaceadapter.Document{
				User:       session.User,
				Plans:      workspace.Plans,
				PlansTitle: "Cached lesson plans",
				Plan:       workspace.ActivePlan,
			}
			if doc.Plans == nil {
				doc.Plans = []domain.LessonPlan{}
			}
			if workspace.ActivePlan != nil {
				doc.Transcript = workspace.Transcript
			}

			opts := renderOptionsForWorkspace(app, workspace)
			opts.TranscriptTail = 10

			rendered, err := app.renderer(doc, opts)
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			if !session.Authenticated() {
				rendered = lipgloss.JoinVertical(lipgloss.Left, "Not signed in.", rendered)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage lesson plans",
	}

	cmd.AddCommand(
		newPlanListCmd(app),
		newPlanCreateCmd(app),
		newPlanShowCmd(app),
		newPlanUpdateCmd(app),
		newPlanDeleteCmd(app),
		newPlanOpenCmd(app),
		newPlanCloseCmd(app),
	)

	return cmd
}

func newPlanListCmd(app *app) *cobra.Command {
	var (
		status  string
		subject string
		limit   int
		skip    int
		cached  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lesson plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			if status != "" && !domain.PlanStatus(status).Valid() {
				return fmt.Errorf("invalid status %q", status)
			}

			var workspace domain.Workspace
			var err error
			if cached {
				workspace, err = app.planner.Workspace(cmd.Context())
			} else {
				workspace, err = app.planner.Refresh(cmd.Context(), domain.PlanFilter{
					Status:  domain.PlanStatus(status),
					Subject: subject,
					Limit:   limit,
					Skip:    skip,
				})
			}
			if err != nil {
				return err
			}

			rendered, err := app.renderer(documentForPlans(workspace, ""), renderOptionsForWorkspace(app, workspace))
			if err != nil {
				return fmt.Errorf("render plans: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, outline, detailed, completed)")
	cmd.Flags().StringVar(&subject, "subject", "", "Filter by subject")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of plans to return")
	cmd.Flags().IntVar(&skip, "skip", 0, "Number of plans to skip")
	cmd.Flags().BoolVar(&cached, "cached", false, "Show the locally cached collection without refreshing")

	return cmd
}

func newPlanCreateCmd(app *app) *cobra.Command {
	var draft domain.PlanDraft

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lesson plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			plan, err := app.planner.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s (%s)\n", plan.Title, plan.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&draft.Title, "title", "", "Plan title")
	cmd.Flags().StringVar(&draft.Subject, "subject", "", "Subject area")
	cmd.Flags().StringVar(&draft.AgeGroup, "age-group", "", "Target age group")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("age-group")

	return cmd
}

func newPlanShowCmd(app *app) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Show one lesson plan; defaults to the open plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			var plan domain.LessonPlan
			switch {
			case len(args) == 1 && cached:
				workspace, err := app.planner.Workspace(cmd.Context())
				if err != nil {
					return err
				}
				var ok bool
				plan, ok = workspace.Plan(domain.PlanID(args[0]))
				if !ok {
					return fmt.Errorf("show plan %s: %w", args[0], domain.ErrPlanNotCached)
				}
			case len(args) == 1:
				var err error
				plan, err = app.client.GetPlan(cmd.Context(), domain.PlanID(args[0]))
				if err != nil {
					return fmt.Errorf("fetch lesson plan: %w", err)
				}
			default:
				workspace, err := app.planner.Workspace(cmd.Context())
				if err != nil {
					return err
				}
				if workspace.ActivePlan == nil {
					return domain.ErrNoActivePlan
				}
				plan = *workspace.ActivePlan
			}

			rendered, err := app.renderer(documentForPlan(plan), renderOptions(app))
			if err != nil {
				return fmt.Errorf("render plan: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Show the locally cached copy without fetching")

	return cmd
}

func newPlanUpdateCmd(app *app) *cobra.Command {
	var title, subject, ageGroup, description, status string

	cmd := &cobra.Command{
		Use:   "update <plan-id>",
		Short: "Update lesson plan fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			var patch domain.PlanPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("subject") {
				patch.Subject = &subject
			}
			if cmd.Flags().Changed("age-group") {
				patch.AgeGroup = &ageGroup
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				planStatus := domain.PlanStatus(status)
				if !planStatus.Valid() {
					return fmt.Errorf("invalid status %q", status)
				}
				patch.Status = &planStatus
			}
			if patch.Title == nil && patch.Subject == nil && patch.AgeGroup == nil && patch.Description == nil && patch.Status == nil {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			plan, err := app.planner.Update(cmd.Context(), domain.PlanID(args[0]), patch)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated plan %s (%s)\n", plan.Title, plan.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Plan title")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject area")
	cmd.Flags().StringVar(&ageGroup, "age-group", "", "Target age group")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&status, "status", "", "Status (draft, outline, detailed, completed)")

	return cmd
}

func newPlanDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Delete a lesson plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			if err := app.planner.Delete(cmd.Context(), domain.PlanID(args[0])); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", args[0])
			return err
		},
	}
}

func newPlanOpenCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <plan-id>",
		Short: "Open a plan for conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			workspace, err := app.planner.Open(cmd.Context(), domain.PlanID(args[0]))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Opened plan %s (%d messages)\n", workspace.ActivePlan.Title, len(workspace.Transcript))
			return err
		},
	}
}

func newPlanCloseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the open plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.planner.Close(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Closed plan.")
			return err
		},
	}
}

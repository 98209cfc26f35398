package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newFileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage files attached to the open plan",
	}

	cmd.AddCommand(newFileUploadCmd(app), newFileListCmd(app), newFileDeleteCmd(app))

	return cmd
}

// resolvePlanID prefers an explicit --plan flag and falls back to the open
// plan, without touching the network.
func resolvePlanID(cmd *cobra.Command, app *app, explicit string) (domain.PlanID, error) {
	if explicit != "" {
		return domain.PlanID(explicit), nil
	}

	workspace, err := app.planner.Workspace(cmd.Context())
	if err != nil {
		return "", err
	}
	if workspace.ActivePlan == nil {
		return "", fmt.Errorf("no plan is open, run `lp plan open`, pass --plan, or use --no-plan")
	}
	return workspace.ActivePlanID, nil
}

func newFileUploadCmd(app *app) *cobra.Command {
	var planFlag string
	var noPlan bool

	cmd := &cobra.Command{
		Use:   "upload <path> [path ...]",
		Short: "Upload files to a lesson plan; defaults to the open plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			var planID domain.PlanID
			if !noPlan {
				var err error
				planID, err = resolvePlanID(cmd, app, planFlag)
				if err != nil {
					return err
				}
			}

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}

				info, err := app.client.UploadFile(cmd.Context(), planID, filepath.Base(path), f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("upload %s: %w", path, err)
				}

				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", info.Filename, info.ID); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&planFlag, "plan", "", "Plan ID; defaults to the open plan")
	cmd.Flags().BoolVar(&noPlan, "no-plan", false, "Upload without attaching to a lesson plan")
	cmd.MarkFlagsMutuallyExclusive("plan", "no-plan")

	return cmd
}

func newFileListCmd(app *app) *cobra.Command {
	var planFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files for a lesson plan; defaults to the open plan, or unattached files when none is open",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			// With neither --plan nor an open plan, the unattached files
			// are listed.
			planID := domain.PlanID(planFlag)
			if planID == "" {
				workspace, err := app.planner.Workspace(cmd.Context())
				if err != nil {
					return err
				}
				planID = workspace.ActivePlanID
			}

			files, err := app.client.ListFiles(cmd.Context(), planID)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}

			if len(files) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No files uploaded.")
				return err
			}

			for _, file := range files {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d bytes\n", file.ID, file.Filename, file.Size); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planFlag, "plan", "", "Plan ID; defaults to the open plan")

	return cmd
}

func newFileDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			if err := app.client.DeleteFile(cmd.Context(), domain.FileID(args[0])); err != nil {
				return fmt.Errorf("delete file: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted file %s\n", args[0])
			return err
		},
	}
}

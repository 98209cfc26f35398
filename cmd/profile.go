package cmd

import (
	"fmt"

	"github.com/mlevasseur/lessonplan-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}

	cmd.AddCommand(newProfileShowCmd(app), newProfileUpdateCmd(app))

	return cmd
}

func newProfileShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			rendered, err := app.renderer(documentForUser(session.User), renderOptions(app))
			if err != nil {
				return fmt.Errorf("render profile: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newProfileUpdateCmd(app *app) *cobra.Command {
	var name, avatar string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			var update ports.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("avatar") {
				update.Avatar = &avatar
			}
			if update.Name == nil && update.Avatar == nil {
				return fmt.Errorf("nothing to update, pass --name or --avatar")
			}

			user, err := app.client.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated profile for %s <%s>\n", user.Name, user.Email)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")

	return cmd
}

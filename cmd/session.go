package cmd

import (
	"fmt"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/spf13/cobra"
)

// requireSession resumes the persisted session and rejects the command when
// it settles anonymous. Commands that talk to authenticated endpoints call
// this first so the user gets one consistent message instead of a 401.
func requireSession(cmd *cobra.Command, app *app) (domain.Session, error) {
	session := app.session.Resume(cmd.Context())
	if !session.Authenticated() {
		return session, fmt.Errorf("not signed in, run `lp login` first: %w", domain.ErrNotAuthenticated)
	}
	return session, nil
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			rendered, err := app.renderer(documentForUser(session.User), renderOptions(app))
			if err != nil {
				return fmt.Errorf("render session: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.Logout(cmd.Context())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

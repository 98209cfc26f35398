package cmd

import (
	"errors"
	"fmt"

	authadapter "github.com/mlevasseur/lessonplan-cli/internal/adapters/auth"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Long:  "login runs the Google sign-in flow in your browser and trades the resulting identity token for a lesson-plan service session. Pass --google-token to skip the browser and supply a Google ID token directly.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := googleToken
			if token == "" {
				var err error
				token, err = runBrowserLogin(cmd, app)
				if err != nil {
					return err
				}
			}

			session, err := app.session.Login(cmd.Context(), token)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", session.User.Name, session.User.Email)
			return err
		},
	}

	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google ID token to exchange directly, skipping the browser flow")

	return cmd
}

func runBrowserLogin(cmd *cobra.Command, app *app) (string, error) {
	if app.login.ClientID == "" {
		return "", errors.New("LP_GOOGLE_CLIENT_ID is not set; set it or pass --google-token")
	}

	proof, err := authadapter.NewProofKey()
	if err != nil {
		return "", fmt.Errorf("generate proof key: %w", err)
	}
	state, err := authadapter.NewState()
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}

	server, err := authadapter.StartCallbackServer(app.login.ListenAddr, state)
	if err != nil {
		return "", fmt.Errorf("start callback server: %w", err)
	}

	authURL, err := authadapter.BuildAuthorizationURL(authadapter.AuthorizationRequest{
		AuthURL:       app.login.AuthURL,
		ClientID:      app.login.ClientID,
		RedirectURI:   server.RedirectURI(),
		Scopes:        []string{"openid", "profile", "email"},
		State:         state,
		CodeChallenge: proof.Challenge,
	})
	if err != nil {
		_ = server.Close()
		return "", fmt.Errorf("build authorization url: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in with Google:\n%s\n", authURL)

	code, err := server.WaitForCode(app.login.Timeout)
	if err != nil {
		return "", fmt.Errorf("wait for oauth callback: %w", err)
	}

	tokens, err := authadapter.ExchangeCodeForTokens(app.httpClient, authadapter.TokenExchangeRequest{
		TokenURL:     app.login.TokenURL,
		ClientID:     app.login.ClientID,
		RedirectURI:  server.RedirectURI(),
		Code:         code,
		CodeVerifier: proof.Verifier,
	})
	if err != nil {
		return "", fmt.Errorf("exchange code for tokens: %w", err)
	}

	return tokens.IDToken, nil
}

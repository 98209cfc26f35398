package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newKeysCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the AI provider API keys stored on your account",
	}

	cmd.AddCommand(newKeysSetCmd(app), newKeysShowCmd(app), newKeysStatusCmd(app))

	return cmd
}

func newKeysSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider=key> [provider=key ...]",
		Short: "Replace stored provider API keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			keys := make(map[string]string, len(args))
			for _, arg := range args {
				provider, key, ok := strings.Cut(arg, "=")
				if !ok || provider == "" || key == "" {
					return fmt.Errorf("invalid key argument %q, expected provider=key", arg)
				}
				keys[provider] = key
			}

			if err := app.client.ReplaceAPIKeys(cmd.Context(), keys); err != nil {
				return fmt.Errorf("store api keys: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored %d API key(s)\n", len(keys))
			return err
		},
	}
}

func newKeysShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored API keys, masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			masked, err := app.client.MaskedAPIKeys(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch api keys: %w", err)
			}

			if len(masked) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No API keys stored.")
				return err
			}

			providers := make([]string, 0, len(masked))
			for provider := range masked {
				providers = append(providers, provider)
			}
			sort.Strings(providers)

			for _, provider := range providers {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", provider, masked[provider]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newKeysStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the keys required for planning are configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			status, err := app.client.APIKeysConfigured(cmd.Context())
			if err != nil {
				return fmt.Errorf("check api key status: %w", err)
			}

			if status.Configured {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "API keys configured.")
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Missing API keys: %s\n", strings.Join(status.MissingKeys, ", "))
			return err
		},
	}
}

package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lp",
		Short:         "Lesson Plan CLI (lp): AI-assisted lesson planning from the terminal",
		Long:          "lp keeps a local workspace of your lesson plans, talks to the lesson-plan service over its REST API, and runs the AI planning conversation for the currently open plan.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newProfileCmd(app),
		newKeysCmd(app),
		newPlanCmd(app),
		newChatCmd(app),
		newFileCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}

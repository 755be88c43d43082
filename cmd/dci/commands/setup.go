package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newSetupReposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup_repos <branch>",
		Short: "Clone druntime and phobos, preferring the given branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.SetupRepos(cmd.Context(), args[0])
		},
	}
}

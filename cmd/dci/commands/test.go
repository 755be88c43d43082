package commands

import (
	"github.com/spf13/cobra"
)

// suiteCommands lists the individually invocable test suites, each exposed
// as its own test_<suite> command.
var suiteCommands = []string{"dub_package", "druntime", "phobos", "dmd"}

func (c *CLI) newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run all test suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Test(cmd.Context())
		},
	}
}

func (c *CLI) newSuiteCmd(suite string) *cobra.Command {
	return &cobra.Command{
		Use:   "test_" + suite,
		Short: "Run the " + suite + " test suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.RunSuite(cmd.Context(), suite)
		},
	}
}

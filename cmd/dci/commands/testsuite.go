package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newTestsuiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "testsuite",
		Short: "Run the full pipeline: build, test, rebuild, verify, compiler suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Testsuite(cmd.Context())
		},
	}
}

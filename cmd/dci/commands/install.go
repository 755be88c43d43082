package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install_d <compiler>",
		Short: "Install a host D compiler, e.g. dmd-2.109.1 or ldc-1.39.0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.InstallD(cmd.Context(), args[0])
		},
	}
}

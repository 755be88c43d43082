package commands

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild [compare]",
		Short: "Rebuild dmd with itself, optionally verifying reproducibility (compare: 0 or 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compare := false
			if len(args) == 1 {
				v, err := strconv.ParseBool(args[0])
				if err != nil {
					return zerr.Wrap(err, "invalid compare flag "+strconv.Quote(args[0]))
				}
				compare = v
			}
			return c.app.Rebuild(cmd.Context(), compare)
		},
	}
}

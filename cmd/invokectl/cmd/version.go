package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vast-data/go-invoke/core"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeLine(cmd.OutOrStdout(), "invokectl %s", core.Version())
			return nil
		},
	}
}

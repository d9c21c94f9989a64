package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vast-data/go-invoke/manifest"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [dir|file]",
		Short: "List the methods marked for invocation",
		Example: `  invokectl scan ./internal/jobs
  invokectl scan -r -o json .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.scan(cmd.Context(), dirArg(args))
			if err != nil && !isScanErr(err) {
				return err
			}
			m := manifest.FromDeclarations(a.v.GetString(keyModule), decls)
			if printErr := a.printManifest(cmd.OutOrStdout(), m); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

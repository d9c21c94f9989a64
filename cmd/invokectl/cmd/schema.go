package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vast-data/go-invoke/manifest"
)

func newSchemaCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "schema [dir|file]",
		Short: "Export the methods to invoke as an OpenAPI document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.scan(cmd.Context(), dirArg(args))
			if err != nil {
				return err
			}
			doc := manifest.Schema(manifest.FromDeclarations(a.v.GetString(keyModule), decls))
			if err := doc.Validate(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return printDocument(out, doc, a.output())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the document to file")
	return cmd
}

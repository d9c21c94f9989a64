package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vast-data/go-invoke/manifest"
)

func newManifestCmd(a *app) *cobra.Command {
	var (
		file   string
		format string
		read   string
	)
	cmd := &cobra.Command{
		Use:   "manifest [dir|file]",
		Short: "Write or show the manifest of the methods to invoke",
		Example: `  invokectl manifest -r --file invoke.yaml .
  invokectl manifest --format msgpack . > invoke.msgpack
  invokectl manifest --read invoke.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if read != "" {
				m, err := manifest.ReadFile(read)
				if err != nil {
					return err
				}
				return a.printManifest(out, m)
			}

			decls, err := a.scan(cmd.Context(), dirArg(args))
			if err != nil {
				return err
			}
			m := manifest.FromDeclarations(a.v.GetString(keyModule), decls)
			if file != "" {
				if err := m.WriteFile(file); err != nil {
					return err
				}
				writeLine(out, "wrote %s (%d method(s))", file, len(m.Entries))
				return nil
			}
			f, err := manifest.ParseFormat(format)
			if err != nil {
				return err
			}
			return m.Encode(out, f)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the manifest to file, the format following its extension")
	cmd.Flags().StringVar(&format, "format", "yaml", "format written to stdout: json, yaml or msgpack")
	cmd.Flags().StringVar(&read, "read", "", "show a stored manifest")
	return cmd
}

package cmd

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vast-data/go-invoke/codegen"
	"github.com/vast-data/go-invoke/discovery"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		fileName string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "generate [dir|file]",
		Short: "Generate the code registering the methods to invoke",
		Long: `generate writes, in every package holding marked methods, a file declaring one
Register<Component>MethodToInvoke(r *core.Registry, c *<Component>) error
function per component. Nothing is written when the scan reports errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.scan(cmd.Context(), dirArg(args))
			if err != nil {
				return err
			}

			type pkgKey struct{ dir, name string }
			byPkg := make(map[pkgKey][]discovery.Declaration)
			var keys []pkgKey
			for _, d := range decls {
				k := pkgKey{d.Dir, d.Package}
				if _, ok := byPkg[k]; !ok {
					keys = append(keys, k)
				}
				byPkg[k] = append(byPkg[k], d)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i].dir < keys[j].dir })

			out := cmd.OutOrStdout()
			for _, k := range keys {
				path := filepath.Join(k.dir, fileName)
				if dryRun {
					src, err := codegen.Generate(k.name, byPkg[k])
					if err != nil {
						return err
					}
					writeLine(out, "// %s\n%s", path, src)
					continue
				}
				if err := codegen.GenerateFile(path, k.name, byPkg[k]); err != nil {
					return err
				}
				a.logger.Info("generated", zap.String("file", path), zap.Int("methods", len(byPkg[k])))
				writeLine(out, "wrote %s (%d method(s))", path, len(byPkg[k]))
			}
			if len(keys) == 0 {
				writeLine(out, "no methods to invoke")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fileName, "file", codegen.DefaultFileName, "name of the generated file in each package")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the generated code instead of writing it")
	return cmd
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vast-data/go-invoke/discovery"
	"github.com/vast-data/go-invoke/manifest"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		manifestPath string
		strict       bool
	)
	cmd := &cobra.Command{
		Use:   "check [dir|file]",
		Short: "Report misplaced, malformed and duplicate markers",
		Long: `check scans the sources and fails when a marker is applied to anything but a
method, is malformed, marks the same method twice, or when a component has more
than one marked method. With --manifest the scan result is compared to a
stored manifest and any difference fails the check.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			decls, err := a.scan(cmd.Context(), dirArg(args))
			if err != nil && !isScanErr(err) {
				return err
			}

			problems := 0
			var scanErrs discovery.ScanErrors
			if errors.As(err, &scanErrs) {
				for _, e := range scanErrs {
					writeLine(out, "error: %v", e)
					problems++
				}
			}
			for _, d := range decls {
				if d.Consistent() {
					continue
				}
				writeLine(out, "warning: %s: %s declares %s but returns %q", d.Pos, d.Key(), d.ReturnType, d.ResultType())
				if strict {
					problems++
				}
			}
			if manifestPath != "" {
				stored, err := manifest.ReadFile(manifestPath)
				if err != nil {
					return err
				}
				for _, c := range manifest.Diff(stored, manifest.FromDeclarations(stored.Module, decls)) {
					writeLine(out, "%s: %s", c.Kind, c.Key)
					problems++
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			writeLine(out, "ok: %d method(s) to invoke", len(decls))
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest the sources must match")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a declared return type differs from the method result")
	return cmd
}

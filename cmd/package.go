package cmd

import (
	"errors"
	"fmt"
	"os"

	"dailies/core/gate"
	"dailies/core/utils"
	"dailies/feature/packaging"

	"github.com/spf13/cobra"
)

var (
	packageSubdir string
	packageMode   string
	packageDryRun bool
)

// packageCmd places unsent proxy folders into the next sent bucket.
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Package unsent proxy folders for delivery",
	Long: `Verify the proxy pool, then place every proxy folder not yet delivered into
the next dated bucket of the sent folder (e.g. _sent/20240502_01). Folders
are copied or hard-linked (--mode hardlink).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.packaging()
			if err != nil {
				return err
			}
			opts := packaging.Options{Subdir: packageSubdir, Mode: packaging.Mode(packageMode), DryRun: packageDryRun}
			pkg, err := svc.Run(cmd.Context(), opts, func(pkg *packaging.Package) (bool, error) {
				if !jsonOutput {
					printPackage(os.Stdout, pkg)
				}
				return confirm("yes", fmt.Sprintf("Send %s to %s?",
					utils.Plural(len(pkg.Folders), "folder", "folders"), pkg.Bucket))
			})

			if jsonOutput && pkg != nil {
				if perr := printJSON(os.Stdout, pkg); perr != nil {
					return perr
				}
			}

			var rejected *gate.RejectedError
			switch {
			case errors.As(err, &rejected):
				printBlockers(os.Stdout, "Proxy pool not verified", rejected.Blockers)
				return err
			case errors.Is(err, packaging.ErrNotConfirmed):
				a.logger.Warn("Packaging cancelled by user. Nothing was sent.")
				return nil
			case err != nil:
				if pkg != nil {
					printReport(os.Stdout, pkg.Report)
				}
				return err
			}

			if jsonOutput {
				return nil
			}
			if opts.DryRun || len(pkg.Folders) == 0 {
				printPackage(os.Stdout, pkg)
				return nil
			}
			printReport(os.Stdout, pkg.Report)
			return nil
		})
	},
}

func init() {
	packageCmd.Flags().StringVar(&packageSubdir, "subdir", "", "Package one folder of the proxy pool only")
	packageCmd.Flags().StringVar(&packageMode, "mode", "", "Placement mode: copy or hardlink (default from PACKAGING_MODE)")
	packageCmd.Flags().BoolVar(&packageDryRun, "dry-run", false, "Show the package without sending")
	packageCmd.Flags().BoolVar(&assumeYes, "yes", false, "Auto-confirm (non-interactive)")
	RootCmd.AddCommand(packageCmd)
}

package cmd

import (
	"fmt"
	"os"

	"dailies/core/gate"
	"dailies/core/transcode"
	"dailies/feature/proxy"

	"github.com/spf13/cobra"
)

var (
	proxySubdir  string
	proxyDryRun  bool
	proxyVerbose bool
)

// proxyCmd generates missing and outdated proxies.
var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Generate proxies for the media pool",
	Long: `Reconcile the media pool against the proxy pool and transcode every clip
whose proxy is missing or older than its source. Proxies already delivered
into the sent folder count as present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.proxy()
			if err != nil {
				return err
			}
			if !proxyDryRun {
				if err := transcode.New(a.cfg.Transcode, a.logger).Available(); err != nil {
					return err
				}
			}
			res, err := svc.Run(cmd.Context(), proxy.Options{Subdir: proxySubdir, DryRun: proxyDryRun})
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := printJSON(os.Stdout, res); err != nil {
					return err
				}
			} else {
				printPlan(os.Stdout, res.Plan, proxyVerbose)
				printReport(os.Stdout, res.Report)
				printGate(os.Stdout, res.Gate)
			}
			if res.Gate != nil && res.Gate.State != gate.Verified {
				return fmt.Errorf("proxy pool not verified: %w", &gate.RejectedError{State: res.Gate.State, Blockers: res.Gate.Blockers})
			}
			return nil
		})
	},
}

func init() {
	proxyCmd.Flags().StringVar(&proxySubdir, "subdir", "", "Restrict both pools to one folder")
	proxyCmd.Flags().BoolVar(&proxyDryRun, "dry-run", false, "Plan and report without transcoding")
	proxyCmd.Flags().BoolVarP(&proxyVerbose, "verbose", "v", false, "List skipped files too")
	RootCmd.AddCommand(proxyCmd)
}

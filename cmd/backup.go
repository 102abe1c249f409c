package cmd

import (
	"fmt"
	"os"

	"dailies/core/gate"
	"dailies/feature/backup"

	"github.com/spf13/cobra"
)

var (
	backupDryRun     bool
	backupNoBackSync bool
	backupNoProxies  bool
	backupVerbose    bool
)

// backupCmd mirrors the pool to the backup.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Mirror the media pool to the backup",
	Long: `Copy every pool file missing or stale in the backup (POOLS_BACKUP_ROOT, or the
object storage bucket when STORAGE_ENABLED=true). Nothing is ever deleted
from the backup. The proxy pool (POOLS_PROXY_ROOT) is mirrored below
BACKUP_PROXY_DIR unless that is empty. Folders named in BACKUP_EXCLUDES are
left out of every scan. Afterwards, files matching BACKUP_BACKSYNC_GLOBS that only
the backup holds are copied back into the pool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.backup()
			if err != nil {
				return err
			}
			res, err := svc.Run(cmd.Context(), backup.Options{
				DryRun:       backupDryRun,
				SkipBackSync: backupNoBackSync,
				SkipProxies:  backupNoProxies,
			})
			if jsonOutput && res != nil {
				if perr := printJSON(os.Stdout, res); perr != nil {
					return perr
				}
			} else if res != nil {
				printLeg(res.Forward)
				printLeg(res.Proxies)
				printLeg(res.BackSync)
			}
			if err != nil {
				return err
			}
			for _, leg := range []*backup.Leg{res.Forward, res.Proxies, res.BackSync} {
				if leg != nil && leg.Gate != nil && leg.Gate.State != gate.Verified {
					return fmt.Errorf("%s not verified: %w", leg.Plan.Pair.Name, &gate.RejectedError{State: leg.Gate.State, Blockers: leg.Gate.Blockers})
				}
			}
			return nil
		})
	},
}

func printLeg(leg *backup.Leg) {
	if leg == nil {
		return
	}
	printPlan(os.Stdout, leg.Plan, backupVerbose)
	printReport(os.Stdout, leg.Report)
	printGate(os.Stdout, leg.Gate)
}

func init() {
	backupCmd.Flags().BoolVar(&backupDryRun, "dry-run", false, "Plan and report without writing")
	backupCmd.Flags().BoolVar(&backupNoBackSync, "no-backsync", false, "Skip copying backup-only files back into the pool")
	backupCmd.Flags().BoolVar(&backupNoProxies, "no-proxies", false, "Leave the proxy pool out of the backup")
	backupCmd.Flags().BoolVarP(&backupVerbose, "verbose", "v", false, "List skipped files too")
	RootCmd.AddCommand(backupCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dailies/core/gate"
	"dailies/core/utils"
	"dailies/feature/ingest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags shared by the ingest subcommands
	ingestBin     string
	ingestSuffix  string
	ingestDryRun  bool
	ingestVerbose bool
	ingestWipe    bool
)

// ingestCmd is the parent command for CARD→POOL operations.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a camera card into the media pool",
	Long: `Reconcile the card (POOLS_CARD_ROOT) against the whole media pool
(POOLS_MEDIA_ROOT). Files already anywhere in the pool are skipped; the rest
is copied into a dated bin (YYYYMMDD_##[_suffix]).`,
}

var ingestPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what an ingest would copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.ingest()
			if err != nil {
				return err
			}
			res, err := svc.Plan(cmd.Context(), ingestOptions())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(os.Stdout, res)
			}
			fmt.Printf("Bin: %s\n", res.Bin)
			printPlan(os.Stdout, res.Plan, ingestVerbose)
			return nil
		})
	},
}

var ingestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy the card into the pool and verify it",
	Long: `Copy every card file missing from the pool into a bin, then re-index the
pool and verify it. A manifest is written to the pool when verification
passes. With --wipe the card is erased afterwards, after confirmation.

Examples:
  # Copy into the next bin for today
  dailies ingest run

  # Copy into a suffixed bin, e.g. 20240502_03_B-cam
  dailies ingest run --suffix B-cam

  # Resume into an existing bin and erase the card when verified
  dailies ingest run --bin 20240502_01 --wipe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.ingest()
			if err != nil {
				return err
			}
			opts := ingestOptions()
			res, err := svc.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput && !ingestWipe {
				return printJSON(os.Stdout, res)
			}
			if !jsonOutput {
				fmt.Printf("Bin: %s\n", res.Bin)
				printPlan(os.Stdout, res.Plan, ingestVerbose)
				printReport(os.Stdout, res.Report)
				printGate(os.Stdout, res.Gate)
				if res.Manifest != "" {
					fmt.Printf("Manifest: %s\n", res.Manifest)
				}
			}
			if res.Gate != nil && res.Gate.State != gate.Verified {
				return &gate.RejectedError{State: res.Gate.State, Blockers: res.Gate.Blockers}
			}
			if !ingestWipe || opts.DryRun {
				return nil
			}
			opts.Bin = res.Bin
			return runWipe(cmd.Context(), a, svc, opts)
		})
	},
}

var ingestWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Erase the card once the pool is verified to hold it",
	Long: `Re-index card and pool, verify that every card file is up to date in the
pool and erase exactly the verified files after confirmation. Any missing,
stale or unreadable file refuses the whole wipe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.ingest()
			if err != nil {
				return err
			}
			return runWipe(cmd.Context(), a, svc, ingestOptions())
		})
	},
}

func runWipe(ctx context.Context, a *app, svc *ingest.Service, opts ingest.Options) error {
	res, err := svc.Wipe(ctx, opts, func(auth *gate.WipeAuthorization) (bool, error) {
		if !jsonOutput {
			printAuthorization(os.Stdout, auth)
		}
		return confirm("delete", fmt.Sprintf("Erase %s (%s) from %s?",
			utils.Plural(len(auth.Items), "file", "files"), utils.Bytes(auth.Bytes), a.cfg.Pools.CardRoot))
	})
	if jsonOutput && res != nil {
		if perr := printJSON(os.Stdout, res); perr != nil {
			return perr
		}
		return err
	}

	var rejected *gate.RejectedError
	switch {
	case errors.As(err, &rejected):
		printBlockers(os.Stdout, "Wipe refused", rejected.Blockers)
		return err
	case errors.Is(err, ingest.ErrNotConfirmed):
		a.logger.Warn("Wipe cancelled by user. No files were erased.")
		return nil
	case err != nil:
		if res != nil && len(res.Wiped) > 0 {
			fmt.Printf("Erased %s before the failure.\n", utils.Plural(len(res.Wiped), "file", "files"))
		}
		return err
	}

	if opts.DryRun {
		printAuthorization(os.Stdout, res.Authorization)
		fmt.Println("Dry run: nothing was erased.")
		return nil
	}
	a.logger.Info("Card wiped", zap.Int("files", len(res.Wiped)), zap.String("run_id", res.RunID))
	fmt.Printf("Erased %s from the card.\n", utils.Plural(len(res.Wiped), "file", "files"))
	return nil
}

func ingestOptions() ingest.Options {
	return ingest.Options{Bin: ingestBin, Suffix: ingestSuffix, DryRun: ingestDryRun}
}

func init() {
	for _, c := range []*cobra.Command{ingestPlanCmd, ingestRunCmd, ingestWipeCmd} {
		c.Flags().StringVar(&ingestBin, "bin", "", "Target bin (default: next bin for today)")
		c.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Plan and report without writing")
		ingestCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{ingestPlanCmd, ingestRunCmd} {
		c.Flags().StringVar(&ingestSuffix, "suffix", "", "Suffix for a new bin (letters, digits, '-' and '_')")
		c.Flags().BoolVarP(&ingestVerbose, "verbose", "v", false, "List skipped files too")
	}
	ingestRunCmd.Flags().BoolVar(&ingestWipe, "wipe", false, "Erase the card after a verified ingest")
	for _, c := range []*cobra.Command{ingestRunCmd, ingestWipeCmd} {
		c.Flags().BoolVar(&assumeYes, "yes", false, "Auto-confirm the wipe (non-interactive)")
	}

	RootCmd.AddCommand(ingestCmd)
}

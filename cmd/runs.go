package cmd

import (
	"errors"
	"fmt"
	"os"

	"dailies/core/runlog"

	"github.com/spf13/cobra"
)

var (
	runsPair  string
	runsLimit int
)

// errRunLogDisabled is returned by the runs commands without a run log.
var errRunLogDisabled = errors.New("run log disabled: set DATABASE_ENABLED=true")

// runsCmd lists recorded runs.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if a.store == nil {
				return errRunLogDisabled
			}
			runs, err := a.store.List(cmd.Context(), runlog.ListOptions{Pair: runsPair, Limit: runsLimit})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(os.Stdout, runs)
			}
			printRuns(os.Stdout, runs)
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its plan, report and verification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if a.store == nil {
				return errRunLogDisabled
			}
			run, payload, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(os.Stdout, map[string]any{"run": run, "payload": payload})
			}
			printRuns(os.Stdout, []runlog.Run{*run})
			if payload.Plan != nil {
				printPlan(os.Stdout, payload.Plan, true)
			}
			printReport(os.Stdout, payload.Report)
			printGate(os.Stdout, payload.Gate)
			for _, p := range payload.Wiped {
				fmt.Printf("wiped: %s\n", p)
			}
			for _, p := range payload.Artifacts {
				fmt.Printf("artifact: %s\n", p)
			}
			return nil
		})
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsPair, "pair", "", "Only runs of this pair (ingest, proxy, backup, backsync, package)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")
	runsCmd.AddCommand(runsShowCmd)
	RootCmd.AddCommand(runsCmd)
}

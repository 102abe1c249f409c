package cmd

import (
	"fmt"
	"os"

	"dailies/feature/integrity"
	"dailies/feature/integrity/checks"

	"github.com/spf13/cobra"
)

// checkCmd runs the preflight checks.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check roots, storage, run log and tools before a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			svc, err := a.integrity()
			if err != nil {
				return err
			}
			report := svc.CheckAll(cmd.Context())
			if jsonOutput {
				if err := printJSON(os.Stdout, report); err != nil {
					return err
				}
			} else {
				printIntegrity(report)
			}
			if report.Status == checks.StatusError {
				return fmt.Errorf("integrity checks failed")
			}
			return nil
		})
	},
}

func printIntegrity(r *integrity.Report) {
	var rows [][]string
	add := func(kind string, results ...checks.Result) {
		for _, res := range results {
			rows = append(rows, []string{kind, res.Name, string(res.Status), res.Detail})
		}
	}
	add("root", r.Roots...)
	add("storage", r.Storage)
	add("run log", r.RunLog)
	add("tool", r.Tools...)
	fmt.Println(renderTable([]string{"Check", "Name", "Status", "Detail"}, rows, nil))
	fmt.Printf("Overall: %s\n", r.Status)
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/reconcile"
	"dailies/core/runlog"
	"dailies/core/utils"
	"dailies/feature/packaging"
)

// maxRows caps item tables; the full list is available with --json.
const maxRows = 200

var classificationOrder = []reconcile.Classification{
	reconcile.Missing, reconcile.Stale, reconcile.UpToDate, reconcile.OrphanTarget,
}

var actionOrder = []reconcile.Action{
	reconcile.ActionCopy, reconcile.ActionTranscode, reconcile.ActionSkip,
	reconcile.ActionFlagOrphan, reconcile.ActionEligibleForWipe,
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(w io.Writer, plan *reconcile.Plan, verbose bool) {
	s := plan.Summary
	fmt.Fprintf(w, "%s: %s → %s, %s\n", plan.Pair.Name, plan.Pair.Source, plan.Pair.Target, utils.Plural(s.Identities, "identity", "identities"))

	var counts []string
	for _, c := range classificationOrder {
		if n := s.Classifications[c]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %s", c, utils.Count(n)))
		}
	}
	if len(counts) > 0 {
		fmt.Fprintln(w, "  "+strings.Join(counts, ", "))
	}
	fmt.Fprintf(w, "  transfer %s, %s\n", utils.Plural(s.TransferFiles, "file", "files"), utils.Bytes(s.TransferBytes))

	rows := make([][]string, 0, len(plan.Items))
	for _, it := range plan.Items {
		if !verbose && it.Action == reconcile.ActionSkip {
			continue
		}
		rows = append(rows, []string{
			string(it.Action),
			string(it.Classification),
			utils.Truncate(it.SourcePath, 48),
			utils.Truncate(it.TargetPath, 48),
			utils.Bytes(it.EstimatedBytes),
			utils.Truncate(it.Reason, 40),
		})
	}
	if len(rows) > 0 {
		printRows(w, []string{"Action", "State", "Source", "Target", "Size", "Reason"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
	}

	if plan.Pair.WipeCandidate() {
		if plan.WipeEligible {
			fmt.Fprintln(w, "Card is eligible for wipe once the pool is verified.")
		} else {
			printBlockers(w, "Card is not eligible for wipe", plan.Blockers)
		}
	}
}

func printRows(w io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	hidden := 0
	if len(rows) > maxRows {
		hidden = len(rows) - maxRows
		rows = rows[:maxRows]
	}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))
	if hidden > 0 {
		fmt.Fprintf(w, "… %s not shown (use --json)\n", utils.Plural(hidden, "row", "rows"))
	}
}

func printBlockers(w io.Writer, title string, blockers []reconcile.Blocker) {
	if len(blockers) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%s):\n", title, utils.Plural(len(blockers), "blocker", "blockers"))
	rows := make([][]string, 0, len(blockers))
	for _, b := range blockers {
		rows = append(rows, []string{utils.Truncate(b.Path, 56), string(b.Classification), utils.Truncate(b.Reason, 60)})
	}
	printRows(w, []string{"Path", "State", "Reason"}, rows, nil)
}

func printReport(w io.Writer, r *executor.Report) {
	if r == nil {
		return
	}
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Executed%s: %s succeeded, %s failed, %s cancelled, %s written to %s\n",
		mode, utils.Count(r.Succeeded), utils.Count(r.Failed), utils.Count(r.Cancelled), utils.Bytes(r.Bytes), r.Destination)

	failures := r.Failures()
	if r.DryRun || len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		kind, msg := "", ""
		if f.Error != nil {
			kind, msg = string(f.Error.Kind), f.Error.Message
		}
		rows = append(rows, []string{string(f.Action), utils.Truncate(f.SourcePath, 48), strconv.Itoa(f.Attempts), kind, utils.Truncate(msg, 60)})
	}
	printRows(w, []string{"Action", "Source", "Tries", "Kind", "Error"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}

func printGate(w io.Writer, o *gate.Outcome) {
	if o == nil {
		return
	}
	fmt.Fprintf(w, "Verification: %s\n", o.State)
	printBlockers(w, "Verification blockers", o.Blockers)
}

func printAuthorization(w io.Writer, auth *gate.WipeAuthorization) {
	fmt.Fprintf(w, "Wipe authorized for %s (%s) on the card:\n",
		utils.Plural(len(auth.Items), "file", "files"), utils.Bytes(auth.Bytes))
	rows := make([][]string, 0, len(auth.Items))
	for _, it := range auth.Items {
		rows = append(rows, []string{utils.Truncate(it.SourcePath, 56), utils.Truncate(it.TargetPath, 56), utils.Bytes(it.EstimatedBytes)})
	}
	printRows(w, []string{"Card", "Pool", "Size"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func printPackage(w io.Writer, pkg *packaging.Package) {
	fmt.Fprintf(w, "Package %s (%s) in %s\n", pkg.Bucket, pkg.Mode, pkg.SentRoot)
	rows := make([][]string, 0, len(pkg.Folders))
	for _, f := range pkg.Folders {
		rows = append(rows, []string{f.Name, f.Destination, utils.Count(f.Files), utils.Bytes(f.Bytes)})
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing new to send.")
	} else {
		printRows(w, []string{"Folder", "Destination", "Files", "Size"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
	}
	if len(pkg.AlreadySent) > 0 {
		fmt.Fprintf(w, "Already sent: %s\n", strings.Join(pkg.AlreadySent, ", "))
	}
}

func printRuns(w io.Writer, runs []runlog.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		state := r.GateState
		if state == "" {
			state = "-"
		}
		if r.DryRun {
			state += " (dry)"
		}
		rows = append(rows, []string{
			r.ID, utils.Ago(r.StartedAt), r.Pair, r.Command,
			utils.Count(r.Transfers), utils.Bytes(r.TransferBytes),
			utils.Count(r.Failed), state, utils.Count(r.Wiped),
		})
	}
	printRows(w, []string{"Run", "Started", "Pair", "Command", "Transfers", "Size", "Failed", "Gate", "Wiped"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight})
}

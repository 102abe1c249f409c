// Package pipeline runs one reconciliation end to end.
//
// A Job names a pair and the scanners of its two roots. The Runner indexes
// both roots concurrently, reconciles and plans them, executes the plan,
// evaluates a fresh verification gate and appends the outcome to the run
// log. Features assemble Jobs; the Runner holds no state between calls.
//
// # Usage
//
//	job := pipeline.Job{Command: "run", Pair: pair, Source: card, Target: pool, Policy: policy}
//	planned, err := runner.Plan(ctx, job)
//	report := runner.Execute(ctx, planned.Plan, exec)
//	g := runner.Verify(ctx, job, planned.Plan, report)
package pipeline

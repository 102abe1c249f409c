// Package executor applies the mutating items of a reconcile.Plan.
//
// # Execution
//
// Execute runs COPY and TRANSCODE items on a bounded worker pool. Every item
// of the plan gets exactly one Result, in plan order, and a failed item never
// aborts the batch. SKIP, FLAG_ORPHAN and ELIGIBLE_FOR_WIPE items are
// reported as not attempted: wiping is authorized by the gate package, never
// by the executor.
//
// Each item runs under the retry policy and holds a lock on its target path,
// so two items can never write the same destination at once.
//
// # Destinations
//
// FSDestination writes into a staging file named ".<name>.partial-<uuid>"
// next to the target, verifies size and SHA-256 against the source, applies
// the source modification time and renames it into place. A failed write
// removes its staging file. CleanStaging sweeps files left behind by a crash.
//
// ObjectDestination uploads with a single PUT carrying the source
// modification time, capture time and checksum as user metadata.
//
// # Cancellation
//
// Items still queued when the context is done are reported with the
// CANCELLED kind and attempted=false. Dry runs report every mutating item
// with the DRY_RUN kind.
package executor

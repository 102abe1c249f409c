// Package runlog keeps an append-only audit trail of reconciliation runs.
//
// # Records
//
// Every plan, run, verification and wipe appends one Run row with its
// summary columns. The full plan, executor report and gate outcome are stored
// as zstd-compressed JSON in the payload column.
//
// Rows are never updated or deleted by this package. The reconciliation
// itself never reads the run log: it is an operator record, not a cache.
//
// # Schema
//
// Migrate creates the table. Check verifies that an existing table carries
// every column the store writes, which catches a run log shared with an
// older installation.
package runlog

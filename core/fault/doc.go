// Package fault defines the error kinds that reach operators.
//
// Every per-file or per-item failure is converted into an Error with a
// stable Kind before it is stored in an index, an execution result or the
// run log, so nothing is reported as a bare string.
//
// # Kinds
//
//   - INDEXING_ERROR, IDENTITY_COLLISION: recorded by the set indexer.
//   - EXECUTION_FAILURE, TRANSCODE_FAILURE, CANCELLED, DRY_RUN, TIMEOUT:
//     recorded by the plan executor.
//   - GATE_REJECTED: returned by the verification gate.
package fault

// Package review serves plans, reports and the run log read-only over HTTP.
//
// Nothing here mutates a root: plans are recomputed on request from fresh
// indices and discarded, and the run log is only read.
//
// # HTTP Endpoints
//
//   - GET /runs          : Recent runs, newest first (?pair=ingest&limit=20).
//   - GET /runs/:id      : One run with its plan, report and gate outcome.
//   - GET /plans         : Names of the pairs that can be planned.
//   - GET /plans/:pair   : A fresh plan for a pair (ingest, proxy, backup).
package review

// Package integrity provides preflight health checks of the workflow's
// environment.
//
// Unlike the pair features, which reconcile media, this package validates
// the infrastructure a run depends on. It never writes.
//
// # Checks Provided
//
//   - Roots: each configured root exists, is a directory and holds no stale
//     staging files left by an interrupted run.
//   - Storage: the backup bucket exists and the object prefix is listable.
//   - RunLog: the run table has every column the store writes.
//   - Tools: ffmpeg and ffprobe are on PATH.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/roots : Runs the roots check.
//   - GET /integrity/storage : Runs the storage check.
//   - GET /integrity/runlog : Runs the run-log schema check.
//   - GET /integrity/tools : Runs the tools check.
package integrity

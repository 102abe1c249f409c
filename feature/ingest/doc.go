// Package ingest copies capture cards into the media pool.
//
// A card is reconciled against the whole pool, so a file already present in
// any bin is skipped rather than copied twice. Missing files are placed in a
// bin folder named YYYYMMDD_##[_suffix]: the next sequence for today unless
// the operator names one.
//
// # Run
//
// Run plans, copies, then re-indexes both roots through a verification gate.
// When the gate verifies, a Manifest listing the final pool path of every
// card identity is written under the pool's _reports/manifests folder.
//
// # Wipe
//
// Wipe never trusts an earlier run. It plans afresh and only erases card
// files when a new gate verifies a wipe-eligible plan and the operator
// confirms. Exactly the authorized files are removed; empty directories are
// pruned afterwards.
package ingest

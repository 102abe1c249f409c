// Package reconcile classifies media between two roots and plans the work
// needed to bring the target up to date.
//
// # Engine
//
// Reconcile takes a source and a target SetIndex and produces exactly one
// Result per identity of their union, ordered by identity key:
//   - MISSING: in the source only.
//   - STALE: in both, but the target's signature differs (size, checksum,
//     written before capture, or an mtime difference beyond the tolerance
//     that checksums do not settle).
//   - UP_TO_DATE: in both with matching signatures.
//   - ORPHAN_TARGET: in the target only.
//
// The engine is pure. Proxy pairs use the DerivedComparer and match on the
// size-free identity projection, since a proxy never has its source's size.
//
// # Planner
//
// BuildPlan maps classifications to actions: MISSING and STALE become COPY
// (TRANSCODE for proxy targets), UP_TO_DATE becomes SKIP, and ORPHAN_TARGET
// is only ever flagged. There is no delete action.
//
// For CARD→POOL pairs the planner also judges wipe eligibility for the
// batch as a whole. Any MISSING or STALE identity, any unreadable or
// colliding card file, or an orphan inside the pair's OrphanScope blocks
// every ELIGIBLE_FOR_WIPE item and is listed in Plan.Blockers.
//
// # Ordering
//
// Items are ordered COPY/TRANSCODE, SKIP, FLAG_ORPHAN, ELIGIBLE_FOR_WIPE,
// ties broken by identity key, so no wipe decision precedes a copy.
//
// # Usage
//
//	pair := reconcile.Pair{Name: "ingest", Source: index.RootCard, Target: index.RootPool}
//	results := reconcile.ForPair(pair, policy).ReconcilePair(pair, card, pool)
//	plan := reconcile.BuildPlan(pair, card, pool, results, policy)
package reconcile

// Package gate decides whether a card may be wiped.
//
// A Gate starts PENDING for one executed plan. Evaluate moves it to VERIFIED
// only when:
//   - every COPY and TRANSCODE item of the plan succeeded,
//   - a fresh re-index of both roots reconciles every source identity as
//     UP_TO_DATE, and
//   - the fresh source index has no indexing error or identity collision.
//
// Anything else moves it to REJECTED, which is terminal. Authorize returns
// the fresh ELIGIBLE_FOR_WIPE items of a VERIFIED gate, or a *RejectedError
// naming every blocking identity.
//
// Gates are never persisted. Every invocation builds a new one and re-reads
// both roots, so a wipe can never rest on an earlier verification.
package gate

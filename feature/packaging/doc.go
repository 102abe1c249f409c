// Package packaging bundles proxy folders for delivery.
//
// Each top-level folder of the proxy root that has not been sent yet is
// placed into the next dated bucket under _sent (YYYYMMDD_##), by copy or
// hard link. A folder name already present in any bucket counts as sent.
//
// Packaging only starts from a verified proxy pool: the POOL→PROXY pair is
// planned and verified afresh, and a pending transcode or a partial index
// refuses the package.
package packaging

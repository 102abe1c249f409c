// Package backup mirrors the media pool to backup storage.
//
// The forward leg reconciles POOL→BACKUP and copies what is missing or
// outdated, to a filesystem root or an object storage bucket. Orphans in
// the backup are flagged, never removed.
//
// # Back-sync
//
// Editors sometimes export straight to the backup drive. The back-sync leg
// reconciles BACKUP→POOL over files matching BackSyncGlobs and copies only
// those the pool does not have at all; a pool copy that differs is left
// alone. Back-sync needs a filesystem backup root.
package backup

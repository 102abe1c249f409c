// Package index builds per-root indices of media files.
//
// A SetIndex maps identity keys to entries for one root (CARD, POOL, PROXY
// or BACKUP). It is built from scratch on every run and never cached, so
// out-of-band changes on disk are always seen.
//
// # Scanning
//
// Scanners enumerate files and produce metadata records:
//   - FSScanner walks a directory tree; every stat, read, probe and hash
//     runs under core/retry with a per-attempt timeout.
//   - ObjectScanner lists a bucket prefix through core/storage and reads
//     the source mtime, capture time and checksum from object metadata.
//
// # Duplicates and Collisions
//
// When two files in one root resolve to the same identity, their checksums
// are computed on demand. Equal checksums merge them into one entry with a
// duplicate counter; anything else is recorded as a Collision and the index
// becomes Partial. Unreadable files are recorded as FileError values.
//
// # Determinism
//
// Records are inserted in path order and entries are read back in key
// order, so scanning an unchanged tree twice yields identical indices.
package index

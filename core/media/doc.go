// Package media resolves path-independent identities for media files.
//
// An Identity is the normalized original-name stem, the size and the device
// capture time, optionally confirmed by a content checksum. Renames by later
// pipeline stages (proxy suffixes, collision renames, case changes, moving
// into a dated bin) do not change it.
//
// # Components
//
//   - Resolver: stem normalization and identity resolution. Confirm decides
//     between a true duplicate and an identity collision.
//   - Filter: hidden files, AppleDouble sidecars, staging files, report
//     folders and optional media extension classes.
//   - Prober: capture time from ffprobe's creation_time tag.
//   - HashFile: streaming SHA-256.
//
// # Usage
//
//	r := media.MustResolver()
//	id := r.Resolve(media.Metadata{Path: "A001C003.MOV", Size: 1024})
//	fmt.Println(id.Key())
package media

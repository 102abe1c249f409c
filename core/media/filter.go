package media

import (
	"path"
	"strings"
)

// Class is a media extension class.
type Class string

const (
	ClassVideo         Class = "VIDEO"
	ClassAudio         Class = "AUDIO"
	ClassImageSequence Class = "IMAGE_SEQUENCE"
)

var extensionClasses = map[string]Class{
	".mov": ClassVideo, ".mp4": ClassVideo, ".mxf": ClassVideo, ".mkv": ClassVideo,
	".m4v": ClassVideo, ".avi": ClassVideo, ".r3d": ClassVideo, ".braw": ClassVideo,
	".ari": ClassVideo, ".hevc": ClassVideo,

	".wav": ClassAudio, ".aif": ClassAudio, ".aiff": ClassAudio, ".mp3": ClassAudio,
	".m4a": ClassAudio, ".flac": ClassAudio, ".aac": ClassAudio, ".ogg": ClassAudio,
	".bwf": ClassAudio,

	".dpx": ClassImageSequence, ".exr": ClassImageSequence, ".dng": ClassImageSequence,
	".tif": ClassImageSequence, ".tiff": ClassImageSequence, ".jpg": ClassImageSequence,
	".jpeg": ClassImageSequence, ".png": ClassImageSequence, ".bmp": ClassImageSequence,
}

// ClassOf returns the media class of a file name, or "" when unknown.
func ClassOf(name string) Class {
	return extensionClasses[strings.ToLower(path.Ext(name))]
}

// StagingMarker is embedded in the name of every in-flight copy.
const StagingMarker = ".partial-"

// LockFileName is the pool lock file; it is never indexed.
const LockFileName = ".sync.lock"

var ignoredDirs = map[string]struct{}{
	"_reports":                  {},
	"$recycle.bin":              {},
	"system volume information": {},
	"lost+found":                {},
}

// Filter decides which directory entries a scan visits.
type Filter struct {
	// Classes restricts files to these media classes. Empty admits all.
	Classes []Class
	// SkipDirs lists additional directory names to ignore (case-insensitive).
	SkipDirs []string
}

// SkipDir reports whether a directory must not be descended into.
func (f Filter) SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	if _, ok := ignoredDirs[lower]; ok {
		return true
	}
	for _, d := range f.SkipDirs {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// SkipFile reports whether a file must be left out of the index. Hidden
// files, AppleDouble sidecars and staging files are always skipped.
func (f Filter) SkipFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.Contains(name, StagingMarker) {
		return true
	}
	if strings.EqualFold(name, "thumbs.db") || strings.EqualFold(name, "desktop.ini") {
		return true
	}
	if len(f.Classes) == 0 {
		return false
	}
	class := ClassOf(name)
	for _, c := range f.Classes {
		if c == class {
			return false
		}
	}
	return true
}

// SkipPath applies SkipDir to every parent and SkipFile to the base of a
// slash-separated relative path. Object scanners use it since they see
// flat keys rather than a directory walk.
func (f Filter) SkipPath(rel string) bool {
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	for _, dir := range parts[:len(parts)-1] {
		if f.SkipDir(dir) {
			return true
		}
	}
	return f.SkipFile(parts[len(parts)-1])
}

// ParseClasses converts configured class names, ignoring unknown values.
func ParseClasses(names []string) []Class {
	var out []Class
	for _, n := range names {
		switch c := Class(strings.ToUpper(strings.TrimSpace(n))); c {
		case ClassVideo, ClassAudio, ClassImageSequence:
			out = append(out, c)
		}
	}
	return out
}

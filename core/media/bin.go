package media

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// DayLayout formats the date part of a bin name.
const DayLayout = "20060102"

var (
	binPattern    = regexp.MustCompile(`^(\d{8})_(\d{2,})(?:_(.+))?$`)
	suffixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrInvalidSuffix is returned for a bin suffix outside [A-Za-z0-9_-].
var ErrInvalidSuffix = errors.New("invalid bin suffix")

// Bin is a parsed dated folder name, YYYYMMDD_##[_suffix]. Pool bins and
// _sent buckets share the scheme.
type Bin struct {
	// Day is the YYYYMMDD date part.
	Day string
	// Seq is the sequence number within the day.
	Seq int
	// Suffix is the optional free-form label.
	Suffix string
}

// String formats the bin folder name.
func (b Bin) String() string {
	name := fmt.Sprintf("%s_%02d", b.Day, b.Seq)
	if b.Suffix != "" {
		name += "_" + b.Suffix
	}
	return name
}

// ParseBin parses a bin folder name.
func ParseBin(name string) (Bin, bool) {
	m := binPattern.FindStringSubmatch(name)
	if m == nil {
		return Bin{}, false
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Bin{}, false
	}
	return Bin{Day: m[1], Seq: seq, Suffix: m[3]}, true
}

// ValidSuffix reports whether suffix may be appended to a bin name.
func ValidSuffix(suffix string) bool {
	return suffix == "" || suffixPattern.MatchString(suffix)
}

// NextBin returns the next bin for day given the existing folder names.
// The sequence continues from the highest bin of that day, whatever its
// suffix.
func NextBin(existing []string, day time.Time, suffix string) (Bin, error) {
	if !ValidSuffix(suffix) {
		return Bin{}, fmt.Errorf("%w: %q", ErrInvalidSuffix, suffix)
	}

	stamp := day.Format(DayLayout)
	highest := 0
	for _, name := range existing {
		if b, ok := ParseBin(name); ok && b.Day == stamp && b.Seq > highest {
			highest = b.Seq
		}
	}
	return Bin{Day: stamp, Seq: highest + 1, Suffix: suffix}, nil
}

// ListBins returns the bin folder names directly under root, sorted.
func ListBins(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins in %s: %w", root, err)
	}

	var bins []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := ParseBin(e.Name()); ok {
			bins = append(bins, e.Name())
		}
	}
	sort.Strings(bins)
	return bins, nil
}

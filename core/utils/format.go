package utils

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// Bytes renders a byte count with SI units ("1.2 GB").
func Bytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Plural returns "1 file" or "3 files".
func Plural(n int, singular, plural string) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, singular, plural)
}

// Ago renders t relative to now ("3 hours ago"). Zero times render as "-".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// Truncate shortens s to max runes, marking the cut with "…".
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// ToBool parses operator input ("1", "true", "yes", "y").
func ToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

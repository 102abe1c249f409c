package index

import (
	"dailies/core/media"
)

// Config holds indexing settings.
type Config struct {
	// SuffixPatterns are the stem suffixes stripped during identity
	// resolution (regular expressions, matched against the lowercased stem).
	SuffixPatterns []string `mapstructure:"suffix_patterns" default:"__dup\\d+$,[._]proxy$"`
	// Classes restricts indexing to media classes (VIDEO, AUDIO,
	// IMAGE_SEQUENCE). Empty indexes every file.
	Classes []string `mapstructure:"classes" default:""`
	// Hash computes a SHA-256 for every file while indexing.
	Hash bool `mapstructure:"hash" default:"false"`
	// Probe reads capture timestamps with ffprobe.
	Probe bool `mapstructure:"probe" default:"true"`
	// FFProbe is the ffprobe executable.
	FFProbe string `mapstructure:"ffprobe" default:"ffprobe"`
}

// Resolver compiles the configured suffix patterns. An empty list selects
// the defaults.
func (c Config) Resolver() (*media.Resolver, error) {
	if len(c.SuffixPatterns) == 0 {
		return media.NewResolver(nil)
	}
	return media.NewResolver(c.SuffixPatterns)
}

// Prober returns the capture-time prober selected by the configuration.
func (c Config) Prober() media.Prober {
	if !c.Probe {
		return media.NoProbe{}
	}
	return media.FFProbe{Binary: c.FFProbe}
}

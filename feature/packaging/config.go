package packaging

// Mode selects how proxies are placed into a package.
type Mode string

const (
	// ModeCopy copies every file.
	ModeCopy Mode = "copy"
	// ModeHardlink links files, copying only when a link is impossible.
	ModeHardlink Mode = "hardlink"
)

// Config holds packaging settings.
type Config struct {
	// Mode is the default placement mode.
	Mode Mode `mapstructure:"mode" default:"copy"`
	// SentDir is the folder of dated buckets, relative to the proxy root.
	SentDir string `mapstructure:"sent_dir" default:"_sent"`
}

package backup

// Config holds backup settings. The destination is the backup root, or the
// object storage bucket when storage is enabled.
type Config struct {
	// BackSync copies files present only in the backup back into the pool.
	BackSync bool `mapstructure:"back_sync" default:"true"`
	// BackSyncGlobs selects the files eligible for back-sync by base name.
	BackSyncGlobs []string `mapstructure:"backsync_globs" default:"*.mp4,*.MP4"`
	// ProxyDir is the backup folder (or object prefix) receiving the proxy
	// pool. Empty disables the proxy mirror.
	ProxyDir string `mapstructure:"proxy_dir" default:"PROXY_POOL"`
	// Excludes lists folder names left out of every backup scan.
	Excludes []string `mapstructure:"excludes" default:""`
}

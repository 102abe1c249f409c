package ingest

// Config holds ingest settings.
type Config struct {
	// BinSuffix is appended to new bin names (e.g. "A-cam").
	BinSuffix string `mapstructure:"bin_suffix" default:""`
	// ManifestDir is where manifests are written, relative to the pool root.
	ManifestDir string `mapstructure:"manifest_dir" default:"_reports/manifests"`
	// PruneDirs removes card directories left empty by a wipe.
	PruneDirs bool `mapstructure:"prune_dirs" default:"true"`
}

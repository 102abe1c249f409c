package proxy

// Config holds proxy generation settings.
type Config struct {
	// Extensions restricts the pool files that get a proxy. Empty admits
	// every video file.
	Extensions []string `mapstructure:"extensions" default:".mov,.mp4,.mxf"`
	// OutputExt is the extension of generated proxies.
	OutputExt string `mapstructure:"output_ext" default:".mp4"`
}

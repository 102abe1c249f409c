package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"dailies/core/database"
	"dailies/core/executor"
	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/media"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/server"
	"dailies/core/storage"
	"dailies/core/transcode"
	"dailies/feature/backup"
	"dailies/feature/ingest"
	"dailies/feature/packaging"
	"dailies/feature/proxy"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrRootNotConfigured is returned when a command needs a root that is not set.
var ErrRootNotConfigured = errors.New("root not configured")

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the review HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object-storage backup target.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run-log database.
	Database database.Config `mapstructure:"database"`
	// Pools holds the roots of the workflow.
	Pools Pools `mapstructure:"pools"`
	// Index holds indexing settings.
	Index index.Config `mapstructure:"index"`
	// Executor holds transfer settings.
	Executor executor.Config `mapstructure:"executor"`
	// Policy holds planning settings.
	Policy reconcile.Policy `mapstructure:"policy"`
	// Transcode holds ffmpeg settings.
	Transcode transcode.Config `mapstructure:"transcode"`
	// Retry holds the retry policy for filesystem and storage calls.
	Retry retry.Policy `mapstructure:"retry"`
	// Ingest holds CARD→POOL settings.
	Ingest ingest.Config `mapstructure:"ingest"`
	// Proxy holds POOL→PROXY settings.
	Proxy proxy.Config `mapstructure:"proxy"`
	// Backup holds POOL→BACKUP settings.
	Backup backup.Config `mapstructure:"backup"`
	// Packaging holds delivery packaging settings.
	Packaging packaging.Config `mapstructure:"packaging"`
}

// Pools holds the root directories.
type Pools struct {
	// CardRoot is the mounted camera card.
	CardRoot string `mapstructure:"card_root" default:""`
	// MediaRoot is the media pool of dated bins.
	MediaRoot string `mapstructure:"media_root" default:""`
	// ProxyRoot receives proxies.
	ProxyRoot string `mapstructure:"proxy_root" default:""`
	// BackupRoot is the filesystem backup mirror of the pool.
	BackupRoot string `mapstructure:"backup_root" default:""`
}

// Require returns ErrRootNotConfigured naming every empty root among names
// (card, media, proxy, backup).
func (p Pools) Require(names ...string) error {
	roots := map[string]string{
		"card":   p.CardRoot,
		"media":  p.MediaRoot,
		"proxy":  p.ProxyRoot,
		"backup": p.BackupRoot,
	}
	var missing []string
	for _, n := range names {
		if strings.TrimSpace(roots[n]) == "" {
			missing = append(missing, "POOLS_"+strings.ToUpper(n)+"_ROOT")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrRootNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. POOLS_CARD_ROOT -> pools.card_root)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail late, mid-run.
func (c *Config) Validate() error {
	if c.Executor.Workers < 1 {
		return fmt.Errorf("executor.workers must be at least 1, got %d", c.Executor.Workers)
	}
	if !transcode.HasProfile(c.Policy.TranscodeProfile) {
		return fmt.Errorf("policy.transcode_profile: unknown profile %q", c.Policy.TranscodeProfile)
	}
	if c.Ingest.BinSuffix != "" && !media.ValidSuffix(c.Ingest.BinSuffix) {
		return fmt.Errorf("ingest.bin_suffix %q: %w", c.Ingest.BinSuffix, media.ErrInvalidSuffix)
	}
	switch c.Packaging.Mode {
	case packaging.ModeCopy, packaging.ModeHardlink:
	default:
		return fmt.Errorf("packaging.mode: unknown mode %q", c.Packaging.Mode)
	}
	if _, err := c.Index.Resolver(); err != nil {
		return fmt.Errorf("index.suffix_patterns: %w", err)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

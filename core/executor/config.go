package executor

import "time"

// Config holds the executor configuration.
type Config struct {
	// Workers bounds the number of concurrent transfers.
	Workers int `mapstructure:"workers" default:"4"`
	// DryRun plans and reports without writing.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// StagingMaxAge is the age after which CleanStaging removes leftovers.
	StagingMaxAge time.Duration `mapstructure:"staging_max_age" default:"24h"`
}

// Package config provides configuration management for dailies.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Every key has a default declared in a `default`
// struct tag next to the field it configures.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Pools: card, media pool, proxy and backup roots (POOLS_CARD_ROOT, ...)
//   - Index: stem suffix patterns, media classes, hashing, ffprobe
//   - Executor: worker count, dry run, staging sweep age
//   - Policy: transcode profile, skip and orphan rules, mtime tolerance
//   - Retry: attempts, backoff and per-attempt timeout
//   - Ingest, Proxy, Backup, Packaging: per-pair settings
//   - Transcode: ffmpeg binary
//   - Server: review HTTP server (host, port, API key)
//   - Database: optional run log (sqlite or MySQL)
//   - Storage: S3/MinIO backup target
//   - Log: logging level and format
//
// Lists are comma-separated (PROXY_EXTENSIONS=.mov,.mxf) and durations use
// Go syntax (POLICY_MTIME_TOLERANCE=2s).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Pools.Require("card", "media"); err != nil {
//	    log.Fatal(err)
//	}
package config

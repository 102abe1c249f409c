// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber web framework used
// by the review API.
//
// # Correlation
//
// Two helpers attach correlation ids:
//   - WithRayID extracts the RayID from a Fiber context (HTTP requests).
//   - WithRun tags every line of one CLI run (plan, execute, verify) with
//     the run id that also keys the run log.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log = logger.WithRun(log, runID)
//	log.Info("Indexing card", zap.String("root", root))
package logger

// Package database handles the optional run-log database connection and
// schema inspection.
//
// It wraps GORM to configure either a MySQL server (shared audit log for a
// facility) or a local SQLite file (single workstation).
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// server with the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The run
// log uses it to verify that an existing table matches the model before
// appending to it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Run log disabled", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "runs")
package database

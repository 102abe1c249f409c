// Package server holds the review HTTP server configuration.
//
// The start command owns the Fiber app; this package only defines the
// listen address and API key so that core/config can embed them.
//
// # Usage
//
//	if !cfg.Server.IsValidPort() {
//	    return fmt.Errorf("invalid port %q", cfg.Server.Port)
//	}
//	app.Listen(cfg.Server.Address())
package server

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dailies/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configDir is the directory holding the optional .env file.
	configDir string
	// jsonOutput prints results as JSON instead of tables.
	jsonOutput bool
	// assumeYes auto-confirms destructive actions.
	assumeYes bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dailies",
	Short: "Dailies media reconciliation",
	Long: `Dailies keeps camera cards, the media pool, proxies and backups in sync.

Every command indexes its roots, plans the difference and only then acts.
Card wipes are only ever offered after the pool has been re-indexed and
verified to hold every card file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	// Interrupts cancel in-flight transfers; staged files are never published.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		// We use "debug" level configuration to get ISO8601 timestamps (DevConfig) instead of Epoch (ProdConfig)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding the .env file")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

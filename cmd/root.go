package cmd

import (
	"fmt"
	"os"

	"role-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configDir is where config.yaml and .env are looked up.
	configDir string
	// adminURL overrides the admin API address derived from the config.
	adminURL string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "role-sync",
	Short: "Role Sync Service",
	Long: `Role Sync keeps a game server's whitelist and permission groups in line
with the roles members hold in a chat community.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
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
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding config.yaml and .env")
	RootCmd.PersistentFlags().StringVar(&adminURL, "url", "", "Admin API base URL (defaults to the configured server address)")
}

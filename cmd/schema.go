package cmd

import (
	"context"
	"fmt"
	"time"

	"role-sync/core/config"
	"role-sync/core/logger"
	"role-sync/core/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// schemaCmd is the parent command for store schema operations.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the link store schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the links table and verify its columns",
	Args:  cobra.NoArgs,
	RunE:  runSchemaInit,
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
	RootCmd.AddCommand(schemaCmd)
}

func runSchemaInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := st.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	l.Info("Schema ready", zap.String("driver", cfg.Database.Driver), zap.String("engine", st.Engine()))
	return nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewanb/gridpulse/internal/ingest"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/database"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create database tables",
	Long: `Creates the generation_data and data_quality tables if they do
not exist. Safe to run repeatedly.

Example:
  go run ./cmd/gridpulse migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GridPulse Migrate ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	repo := ingest.NewRepository(db.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.Info("Schema migrated")
	fmt.Println("✅ Tables created: generation_data, data_quality")
	return nil
}

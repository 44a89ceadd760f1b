package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewanb/gridpulse/internal/api"
	"github.com/ewanb/gridpulse/internal/api/handlers"
	"github.com/ewanb/gridpulse/internal/fuelmix"
	"github.com/ewanb/gridpulse/internal/ingest"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/database"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the REST API server over collected generation data.

Endpoints:
  GET  /health                  - Health check
  GET  /api/generation          - Records for a [from, to) range
  GET  /api/generation/latest   - Most recent settlement period
  GET  /api/mix/latest          - Latest fuel-category mix
  GET  /api/fuel-types          - Fuel type to category mapping

Example:
  go run ./cmd/gridpulse serve
  go run ./cmd/gridpulse serve --port 8089`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GridPulse API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Create repository and aggregator
	repo := ingest.NewRepository(db.Pool)
	aggregator := fuelmix.NewAggregator(log)

	// 5. Create handler and router
	generationHandler := handlers.NewGenerationHandler(repo, aggregator, log)
	router := api.NewRouter(generationHandler, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/generation")
	fmt.Println("  GET  /api/generation/latest")
	fmt.Println("  GET  /api/mix/latest")
	fmt.Println("  GET  /api/fuel-types")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

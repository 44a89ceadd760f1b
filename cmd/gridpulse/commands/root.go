package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gridpulse",
	Short: "GridPulse - UK electricity generation data pipeline",
	Long: `GridPulse Unified CLI

Collects actual generation by fuel type from the Elexon BMRS API,
filters implausible settlement periods, and persists the cleaned
series for downstream consumers.

Usage:
  go run ./cmd/gridpulse [command]

Examples:
  go run ./cmd/gridpulse fetch current
  go run ./cmd/gridpulse fetch historical --days 365
  go run ./cmd/gridpulse serve
  go run ./cmd/gridpulse test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewanb/gridpulse/internal/export"
	"github.com/ewanb/gridpulse/internal/ingest"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/database"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to CSV",
	Long: `Reads stored generation records for a [from, to) range and writes
them to a CSV file in the raw-data directory.

Example:
  go run ./cmd/gridpulse export --from 2026-01-01T00:00:00Z --to 2026-02-01T00:00:00Z
  go run ./cmd/gridpulse export --from 2026-01-01T00:00:00Z --to 2026-02-01T00:00:00Z --out january.csv`,
	RunE: runExport,
}

var (
	exportFrom string
	exportTo   string
	exportOut  string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "range start (RFC3339, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "range end (RFC3339, exclusive)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "CSV filename (default: generation_<from>_<to>.csv)")
	exportCmd.MarkFlagRequired("from")
	exportCmd.MarkFlagRequired("to")
}

func runExport(cmd *cobra.Command, args []string) error {
	from, err := time.Parse(time.RFC3339, exportFrom)
	if err != nil {
		return fmt.Errorf("invalid --from (want RFC3339): %w", err)
	}
	to, err := time.Parse(time.RFC3339, exportTo)
	if err != nil {
		return fmt.Errorf("invalid --to (want RFC3339): %w", err)
	}
	if !from.Before(to) {
		return fmt.Errorf("--from must be before --to")
	}

	fmt.Printf("=== GridPulse Export: %s → %s ===\n", exportFrom, exportTo)

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

	repo := ingest.NewRepository(db.Pool)
	records, err := repo.GetByRange(cmd.Context(), from, to)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No records in range; nothing to export")
		return nil
	}

	name := exportOut
	if name == "" {
		name = fmt.Sprintf("generation_%s_%s.csv",
			from.UTC().Format("20060102"), to.UTC().Format("20060102"))
	}

	writer := export.NewCSVWriter(cfg.Collector.RawDataDir, log)
	path, err := writer.Write(records, name)
	if err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}

	fmt.Printf("✅ Exported %d records to %s\n", len(records), path)
	return nil
}

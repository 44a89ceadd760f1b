package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// CSVWriter exports cleaned generation records to CSV files in the
// configured raw-data directory
type CSVWriter struct {
	dir    string
	logger *logger.Logger
}

// NewCSVWriter creates a CSV exporter rooted at dir
func NewCSVWriter(dir string, log *logger.Logger) *CSVWriter {
	return &CSVWriter{
		dir:    dir,
		logger: log.WithField("component", "export.csv"),
	}
}

// Write exports records to a CSV file and returns the full path.
// The directory is created on first use.
func (w *CSVWriter) Write(records []contracts.GenerationRecord, filename string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(w.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"timestamp", "fuel_type", "generation_mw"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Timestamp.UTC().Format(time.RFC3339),
			record.FuelType,
			strconv.FormatFloat(record.GenerationMW, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush export file: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(records),
	}).Info("Exported generation data")

	return path, nil
}

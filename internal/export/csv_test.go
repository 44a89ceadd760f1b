package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, testLogger())

	period := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	records := []contracts.GenerationRecord{
		{Timestamp: period, FuelType: "Fossil Gas", GenerationMW: 14000},
		{Timestamp: period, FuelType: "Wind Onshore", GenerationMW: 9120.5},
	}

	path, err := w.Write(records, "generation.csv")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if path != filepath.Join(dir, "generation.csv") {
		t.Errorf("Unexpected path: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open exported file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}

	header := rows[0]
	if header[0] != "timestamp" || header[1] != "fuel_type" || header[2] != "generation_mw" {
		t.Errorf("Unexpected header: %v", header)
	}

	if rows[1][0] != "2026-01-15T12:00:00Z" {
		t.Errorf("Unexpected timestamp: %s", rows[1][0])
	}
	if rows[2][2] != "9120.5" {
		t.Errorf("Unexpected generation value: %s", rows[2][2])
	}
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "raw", "nested")
	w := NewCSVWriter(dir, testLogger())

	path, err := w.Write(nil, "empty.csv")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Exported file missing: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	// Header only
	if len(rows) != 1 {
		t.Errorf("Expected header only, got %d rows", len(rows))
	}
}

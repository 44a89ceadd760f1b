package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Upstream API
	Elexon ElexonConfig

	// Collection pipeline
	Collector CollectorConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ElexonConfig holds Elexon Insights API configuration.
// The API requires no key; only the base URL and retry behaviour are tunable.
type ElexonConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryAttempts  int           // total attempts, including the first
	RetryBaseDelay time.Duration // delay doubles after each failed attempt
}

// CollectorConfig holds pipeline settings for collection and cleaning
type CollectorConfig struct {
	// Periods whose summed generation falls below this are treated as
	// incomplete fuel-mix snapshots and dropped. The UK rarely draws less
	// than 25 GW, but the baseline drifts over years, so it stays tunable.
	MinTotalGenerationMW float64

	ChunkDays      int           // days per historical request window
	ChunkDelay     time.Duration // pause between historical request windows
	HistoricalDays int           // default depth for an initial backfill

	RefreshSchedule string // cron expression (with seconds) for the refresh job
	RawDataDir      string // destination for CSV exports
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Upstream API
		Elexon: ElexonConfig{
			BaseURL:        getEnv("ELEXON_BASE_URL", "https://data.elexon.co.uk/bmrs/api/v1"),
			Timeout:        getEnvAsDuration("ELEXON_TIMEOUT", "30s"),
			RetryAttempts:  getEnvAsInt("ELEXON_RETRY_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("ELEXON_RETRY_BASE_DELAY", "1s"),
		},

		// Collection pipeline
		Collector: CollectorConfig{
			MinTotalGenerationMW: getEnvAsFloat("MIN_TOTAL_GENERATION_MW", 25000),
			ChunkDays:            getEnvAsInt("COLLECT_CHUNK_DAYS", 7),
			ChunkDelay:           getEnvAsDuration("COLLECT_CHUNK_DELAY", "1s"),
			HistoricalDays:       getEnvAsInt("COLLECT_HISTORICAL_DAYS", 365),
			RefreshSchedule:      getEnv("COLLECT_REFRESH_SCHEDULE", "0 */30 * * * *"),
			RawDataDir:           getEnv("RAW_DATA_DIR", "data/raw"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Elexon.BaseURL == "" {
		return fmt.Errorf("ELEXON_BASE_URL must not be empty")
	}

	if c.Elexon.RetryAttempts < 1 {
		return fmt.Errorf("ELEXON_RETRY_ATTEMPTS must be at least 1")
	}

	if c.Collector.ChunkDays < 1 {
		return fmt.Errorf("COLLECT_CHUNK_DAYS must be at least 1")
	}

	if c.Collector.MinTotalGenerationMW <= 0 {
		return fmt.Errorf("MIN_TOTAL_GENERATION_MW must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

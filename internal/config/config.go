// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Cost model names accepted by FOLIO_COST_MODEL.
const (
	CostModelAveraged = "averaged" // moving-average basis, investment = avg × |quantity|
	CostModelBlended  = "blended"  // legacy subtractive basis, investment = |investment − qty×price|
)

// Config holds application configuration
type Config struct {
	DataDir          string // Directory holding tradebook CSVs and the reference database
	Port             int
	LogLevel         string
	DevMode          bool
	RiskFreeRate     float64 // Annualized, e.g. 0.075 for 7.5%
	CostModel        string  // averaged (default) or blended
	NormalizeWeights bool    // Divide portfolio weighted sums by total weight
	Workers          int     // Parallel per-symbol reconstruction workers
	ProviderBaseURL  string  // Market-data provider base URL
	RefreshSchedule  string  // Cron expression for the reference-data refresh job
	CacheTTLHours    int     // Freshness window for cached reference data
	BenchmarkSymbols BenchmarkSymbols
}

// BenchmarkSymbols names the three tracked index symbols at the provider.
type BenchmarkSymbols struct {
	Nifty50   string
	BSESensex string
	NiftyBank string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Data directory: resolve to an absolute path and make sure it exists,
	// since both the tradebook loader and the sqlite cache live under it.
	dataDir := getEnv("FOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("FOLIO_PORT", 8600),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 0.075),
		CostModel:        getEnv("FOLIO_COST_MODEL", CostModelAveraged),
		NormalizeWeights: getEnvAsBool("FOLIO_NORMALIZE_WEIGHTS", false),
		Workers:          getEnvAsInt("FOLIO_WORKERS", 4),
		ProviderBaseURL:  getEnv("MARKETDATA_BASE_URL", "https://query.marketfeed.example.com/v8"),
		RefreshSchedule:  getEnv("FOLIO_REFRESH_SCHEDULE", "30 18 * * MON-FRI"),
		CacheTTLHours:    getEnvAsInt("FOLIO_CACHE_TTL_HOURS", 24),
		BenchmarkSymbols: BenchmarkSymbols{
			Nifty50:   getEnv("BENCHMARK_NIFTY50", "^NSEI"),
			BSESensex: getEnv("BENCHMARK_BSESENSEX", "^BSESN"),
			NiftyBank: getEnv("BENCHMARK_NIFTYBANK", "^NSEBANK"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.CostModel {
	case CostModelAveraged, CostModelBlended:
	default:
		return fmt.Errorf("invalid FOLIO_COST_MODEL %q (want %q or %q)", c.CostModel, CostModelAveraged, CostModelBlended)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("RISK_FREE_RATE must be non-negative, got %v", c.RiskFreeRate)
	}
	if c.Workers < 1 {
		return fmt.Errorf("FOLIO_WORKERS must be at least 1, got %d", c.Workers)
	}
	return nil
}

// DatabasePath returns the path of the reference-data cache database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "folio.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

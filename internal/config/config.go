package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port             int
	DevMode          bool
	LogLevel         string
	DatabasePath     string
	RefreshInterval  time.Duration
	PollTimeout      time.Duration
	MaxWatchlistSize int
	CacheCapacity    int
	QuoteCacheTTL    time.Duration
	HistoryCacheTTL  time.Duration
	FundFlowCacheTTL time.Duration
	HistoryDays      int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/monitor.db"),
		RefreshInterval:  getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		PollTimeout:      getEnvAsDuration("POLL_TIMEOUT", 25*time.Second),
		MaxWatchlistSize: getEnvAsInt("MAX_WATCHLIST_SIZE", 20),
		CacheCapacity:    getEnvAsInt("CACHE_CAPACITY", 100),
		QuoteCacheTTL:    getEnvAsDuration("QUOTE_CACHE_TTL", 30*time.Second),
		HistoryCacheTTL:  getEnvAsDuration("HISTORY_CACHE_TTL", time.Hour),
		FundFlowCacheTTL: getEnvAsDuration("FUND_FLOW_CACHE_TTL", 5*time.Minute),
		HistoryDays:      getEnvAsInt("HISTORY_DAYS", 100),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1s")
	}
	if c.MaxWatchlistSize <= 0 {
		return fmt.Errorf("MAX_WATCHLIST_SIZE must be positive")
	}
	return nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

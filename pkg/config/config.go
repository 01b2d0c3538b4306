package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read through this package only.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data providers
	FMP      FMPConfig
	Screener ScreenerConfig
	Yahoo    YahooConfig

	// LLM narrative/extraction
	Gemini GeminiConfig

	// Scheduled refresh
	Watchlist WatchlistConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FMPConfig holds Financial Modeling Prep API configuration.
// The API key is optional; without it the FMP adapter is simply not constructed.
type FMPConfig struct {
	APIKey  string
	BaseURL string
}

// ScreenerConfig holds Screener.in scrape configuration
type ScreenerConfig struct {
	BaseURL string
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL string
}

// GeminiConfig holds Google GenAI configuration for report narratives and
// annual-report extraction. Optional; everything degrades to template text.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// WatchlistConfig drives the cron refresh job
type WatchlistConfig struct {
	Tickers  []string
	Years    int
	CronSpec string
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DATABASE_ENABLED", true),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		FMP: FMPConfig{
			APIKey:  getEnv("FMP_API_KEY", ""),
			BaseURL: getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},

		Screener: ScreenerConfig{
			BaseURL: getEnv("SCREENER_BASE_URL", "https://www.screener.in"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},

		Watchlist: WatchlistConfig{
			Tickers:  getEnvAsList("WATCHLIST_TICKERS"),
			Years:    getEnvAsInt("WATCHLIST_YEARS", 5),
			CronSpec: getEnv("WATCHLIST_CRON", "0 6 * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATABASE_ENABLED=true")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Watchlist.Years < 1 || c.Watchlist.Years > 10 {
		return fmt.Errorf("WATCHLIST_YEARS must be between 1 and 10")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

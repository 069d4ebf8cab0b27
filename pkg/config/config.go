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
// SSOT: every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (daily bar persistence)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	CurveAPI CurveAPIConfig
	Llama    LlamaConfig

	// Scoring
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// CurveAPIConfig holds prices.curve.fi API configuration.
type CurveAPIConfig struct {
	BaseURL string
	Chain   string
}

// LlamaConfig holds DefiLlama coins API configuration.
type LlamaConfig struct {
	BaseURL   string
	PageSpan  int           // max points per chart page
	PageDelay time.Duration // minimum delay between page requests
}

// ScoringConfig holds evaluation parameters.
type ScoringConfig struct {
	LookbackDays   int    // price history window (default: 180)
	ReferenceAsset string // registry name of the beta reference market
	RegistryPath   string // market registry YAML file
	Workers        int    // concurrent market evaluations
}

// Load reads configuration from environment variables.
// SSOT: only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
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

		CurveAPI: CurveAPIConfig{
			BaseURL: getEnv("CURVE_API_BASE_URL", "https://prices.curve.fi"),
			Chain:   getEnv("CHAIN", "ethereum"),
		},

		Llama: LlamaConfig{
			BaseURL:   getEnv("LLAMA_BASE_URL", "https://coins.llama.fi"),
			PageSpan:  getEnvAsInt("LLAMA_PAGE_SPAN", 500),
			PageDelay: getEnvAsDuration("LLAMA_PAGE_DELAY", "500ms"),
		},

		Scoring: ScoringConfig{
			LookbackDays:   getEnvAsInt("LOOKBACK_DAYS", 180),
			ReferenceAsset: getEnv("REFERENCE_ASSET", "WBTC"),
			RegistryPath:   getEnv("REGISTRY_PATH", "markets.yaml"),
			Workers:        getEnvAsInt("SCORE_WORKERS", 4),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Llama.PageSpan <= 0 {
		return fmt.Errorf("LLAMA_PAGE_SPAN must be positive")
	}

	if c.Scoring.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive")
	}

	if c.Scoring.Workers <= 0 {
		return fmt.Errorf("SCORE_WORKERS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations.
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

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		fallback, _ := time.ParseDuration(defaultValue)
		return fallback
	}

	return value
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Database (submission audit log)
	DatabaseURL string

	// Quote cache (optional)
	RedisAddr     string
	QuoteCacheTTL time.Duration

	// Loan servicing backend
	LoanServicing LoanServicingConfig

	// Prepayment session behavior
	DateFormat   string
	Locale       string
	QuoteTimeout time.Duration
	SessionTTL   time.Duration
}

// LoanServicingConfig holds the upstream loan-servicing backend configuration
type LoanServicingConfig struct {
	BaseURL string
	Tenant  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		QuoteCacheTTL: getDurationEnv("QUOTE_CACHE_TTL_SECONDS", 300) * time.Second,
		LoanServicing: LoanServicingConfig{
			BaseURL: strings.TrimRight(getEnv("LOANSERVICE_URL", ""), "/"),
			Tenant:  getEnv("LOANSERVICE_TENANT", "default"),
		},
		DateFormat:   getEnv("DATE_FORMAT", "dd MMMM yyyy"),
		Locale:       getEnv("LOCALE", "en"),
		QuoteTimeout: getDurationEnv("QUOTE_TIMEOUT_SECONDS", 10) * time.Second,
		SessionTTL:   getDurationEnv("SESSION_TTL_MINUTES", 30) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LoanServicing.BaseURL == "" {
		return fmt.Errorf("LOANSERVICE_URL is required")
	}
	if c.DateFormat == "" {
		return fmt.Errorf("DATE_FORMAT must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int64) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultValue)
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return time.Duration(defaultValue)
	}
	return time.Duration(parsed)
}

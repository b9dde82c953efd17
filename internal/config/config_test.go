package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/prepay")
	t.Setenv("LOANSERVICE_URL", "http://localhost:8443/api/v1")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dd MMMM yyyy", cfg.DateFormat)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 10*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "default", cfg.LoanServicing.Tenant)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOANSERVICE_URL", "http://localhost:8443/api/v1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresLoanServiceURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/prepay")
	t.Setenv("LOANSERVICE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATE_FORMAT", "yyyy-MM-dd")
	t.Setenv("QUOTE_TIMEOUT_SECONDS", "5")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOANSERVICE_URL", "http://localhost:8443/api/v1/")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "yyyy-MM-dd", cfg.DateFormat)
	assert.Equal(t, 5*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	// Trailing slash is trimmed so path joins stay predictable
	assert.Equal(t, "http://localhost:8443/api/v1", cfg.LoanServicing.BaseURL)
}

func TestGetDurationEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("QUOTE_TIMEOUT_SECONDS", "soon")
	assert.Equal(t, time.Duration(10), getDurationEnv("QUOTE_TIMEOUT_SECONDS", 10))

	t.Setenv("QUOTE_TIMEOUT_SECONDS", "-3")
	assert.Equal(t, time.Duration(10), getDurationEnv("QUOTE_TIMEOUT_SECONDS", 10))
}

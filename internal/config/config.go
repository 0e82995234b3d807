package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Config carries every runtime setting. Everything comes from the
// environment, with a .env file honored in development.
type Config struct {
	Port        string
	DatabaseURL string

	WebhookURL     string
	WebhookTimeout time.Duration

	ValkeyAddr    string // empty disables the balance cache
	TokenCacheTTL time.Duration

	LogLevel string
	LogDir   string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvString("PORT", "8080"),
		DatabaseURL:    getEnvString("DATABASE_URL", ""),
		WebhookURL:     getEnvString("CONSULTATION_WEBHOOK_URL", ""),
		WebhookTimeout: time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 120)) * time.Second,
		ValkeyAddr:     getEnvString("VALKEY_ADDR", ""),
		TokenCacheTTL:  time.Duration(getEnvInt("TOKEN_CACHE_TTL_SECONDS", 60)) * time.Second,
		LogLevel:       getEnvString("LOG_LEVEL", "info"),
		LogDir:         getEnvString("LOG_DIR", ""),
	}
}

// Validate reports every missing or invalid setting at once instead of
// failing on the first.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.DatabaseURL == "" {
		result = multierror.Append(result, errors.New("DATABASE_URL is required"))
	}
	if c.WebhookURL == "" {
		result = multierror.Append(result, errors.New("CONSULTATION_WEBHOOK_URL is required"))
	}
	if c.WebhookTimeout <= 0 {
		result = multierror.Append(result, errors.New("WEBHOOK_TIMEOUT_SECONDS must be positive"))
	}
	if c.ValkeyAddr != "" && c.TokenCacheTTL <= 0 {
		result = multierror.Append(result, errors.New("TOKEN_CACHE_TTL_SECONDS must be positive when VALKEY_ADDR is set"))
	}
	return result.ErrorOrNil()
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

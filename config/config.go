package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the service
type Config struct {
	Port           string
	DatabaseURL    string
	GatewayToken   string
	AllowedOrigins []string

	// Profile sync (optional)
	SyncServiceURL   string
	SyncServiceToken string

	// Leaderboard cache (optional)
	RedisURL string

	// Time-slip archive on Cloudflare R2 (optional)
	R2AccountID    string
	R2AccessKeyID  string
	R2AccessSecret string
	R2Bucket       string

	AuditInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "5200"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GatewayToken:     strings.TrimSpace(os.Getenv("GATEWAY_TOKEN")),
		SyncServiceURL:   strings.TrimSpace(os.Getenv("SYNC_SERVICE_URL")),
		SyncServiceToken: strings.TrimSpace(os.Getenv("SYNC_SERVICE_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		R2AccountID:      strings.TrimSpace(os.Getenv("CLOUDFLARE_ACCOUNT_ID")),
		R2AccessKeyID:    strings.TrimSpace(os.Getenv("R2_ACCESS_KEY_ID")),
		R2AccessSecret:   strings.TrimSpace(os.Getenv("R2_ACCESS_KEY_SECRET")),
		R2Bucket:         strings.TrimSpace(os.Getenv("R2_BUCKET_NAME")),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "console"),
	}

	for _, origin := range strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	interval, err := time.ParseDuration(getEnvOrDefault("AUDIT_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, errors.New("AUDIT_INTERVAL must be positive")
	}
	cfg.AuditInterval = interval

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.GatewayToken == "" {
		return nil, errors.New("GATEWAY_TOKEN is required")
	}
	if cfg.SyncServiceURL != "" && cfg.SyncServiceToken == "" {
		cfg.SyncServiceToken = cfg.GatewayToken
	}

	return cfg, nil
}

// R2Enabled is true when every R2 setting is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessSecret != "" && c.R2Bucket != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

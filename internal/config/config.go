package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Blockchain provider (Esplora-compatible API)
	EsploraAPIBaseURL string

	// Exchange rate provider
	RateAPIBaseURL string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Refresh behavior
	RefreshCooldown time.Duration
	ExternalTimeout time.Duration
	RateCacheTTL    time.Duration

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		EsploraAPIBaseURL: getEnv("ESPLORA_API_BASE_URL", "https://blockstream.info/api"),
		RateAPIBaseURL:    getEnv("RATE_API_BASE_URL", "https://api.coingecko.com/api/v3"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "project-media"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RefreshCooldown: getDurationEnv("REFRESH_COOLDOWN_SECONDS", 5*time.Minute),
		ExternalTimeout: getDurationEnv("EXTERNAL_TIMEOUT_SECONDS", 8*time.Second),
		RateCacheTTL:    getDurationEnv("RATE_CACHE_TTL_SECONDS", 60*time.Second),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

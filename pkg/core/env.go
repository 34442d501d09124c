package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIKey   = "FINANCIAL_DATASETS_API_KEY"
	EnvBaseURL  = "FINANCIAL_DATASETS_BASE_URL"
	EnvLogLevel = "TICKR_LOG_LEVEL"
	EnvCacheTTL = "TICKR_CACHE_TTL"
	EnvMarkets  = "TICKR_MARKETS"
)

// LoadEnv loads variables from the given .env files into the process
// environment. Variables already set are not overridden. With no arguments
// it reads ./.env; a missing default file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// ConfigFromEnv returns DefaultConfig(provider) overlaid with values from the
// environment. FINANCIAL_DATASETS_API_KEY may hold several comma-separated keys.
func ConfigFromEnv(provider string) (*Config, error) {
	cfg := DefaultConfig(provider)

	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvCacheTTL, err)
		}
		cfg.CacheTTL = ttl
		cfg.CacheEnabled = ttl > 0
	}
	if v := os.Getenv(EnvMarkets); v != "" {
		for _, name := range splitList(v) {
			m := ParseMarketType(name)
			if !m.IsKnown() {
				return nil, fmt.Errorf("parse %s: unknown market %q", EnvMarkets, name)
			}
			cfg.Markets = append(cfg.Markets, m)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "key-one, key-two,")
	t.Setenv(EnvBaseURL, "https://api.example.com")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvCacheTTL, "30s")
	t.Setenv(EnvMarkets, "nse,bse")

	cfg, err := ConfigFromEnv("financialdatasets")
	require.NoError(t, err)

	assert.Equal(t, []string{"key-one", "key-two"}, cfg.APIKeys)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, []MarketType{MarketNSE, MarketBSE}, cfg.Markets)
}

func TestConfigFromEnv_ZeroCacheTTLDisablesCache(t *testing.T) {
	t.Setenv(EnvCacheTTL, "0s")

	cfg, err := ConfigFromEnv("financialdatasets")
	require.NoError(t, err)
	assert.False(t, cfg.CacheEnabled)
}

func TestConfigFromEnv_Errors(t *testing.T) {
	t.Run("bad_cache_ttl", func(t *testing.T) {
		t.Setenv(EnvCacheTTL, "soon")
		_, err := ConfigFromEnv("financialdatasets")
		assert.ErrorContains(t, err, EnvCacheTTL)
	})

	t.Run("unknown_market", func(t *testing.T) {
		t.Setenv(EnvMarkets, "US,LSE")
		_, err := ConfigFromEnv("financialdatasets")
		assert.ErrorContains(t, err, "LSE")
	})

	t.Run("bad_log_level", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "loud")
		_, err := ConfigFromEnv("financialdatasets")
		assert.ErrorContains(t, err, "LogLevel")
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TICKR_TEST_LOADENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TICKR_TEST_LOADENV") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "loaded", os.Getenv("TICKR_TEST_LOADENV"))

	assert.Error(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

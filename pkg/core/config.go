package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config contains all configuration options for a provider session.
// It includes authentication, networking, rate limiting, caching, and circuit breaker settings.
type Config struct {
	Provider string `json:"provider" validate:"required"`
	// BaseURL overrides the protocol's default endpoint when set.
	BaseURL string   `json:"base_url" validate:"omitempty,url"`
	APIKeys []string `json:"-" validate:"omitempty,dive,required"`
	// Markets limits which markets the session accepts tickers for.
	// Empty means every market the protocol supports.
	Markets []MarketType `json:"markets,omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// RateLimitRequests per RateLimitPeriod apply globally and to each market bucket.
	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl" validate:"min=0"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
}

// DefaultConfig returns a Config initialized with defaults for the named provider:
// 10s timeout, 3 retries, 100ms-1s retry wait, 60 req/min rate limit,
// 5m cache TTL, circuit breaker with 5 failures/2 successes/30s timeout.
func DefaultConfig(provider string) *Config {
	return &Config{
		Provider:     provider,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 60,
		RateLimitPeriod:   time.Minute,

		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, m := range c.Markets {
		if !m.IsKnown() {
			return fmt.Errorf("market %s is not supported", m)
		}
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// AllowsMarket reports whether tickers from m may be requested.
func (c *Config) AllowsMarket(m MarketType) bool {
	if !m.IsKnown() {
		return false
	}
	if len(c.Markets) == 0 {
		return true
	}
	for _, allowed := range c.Markets {
		if allowed == m {
			return true
		}
	}
	return false
}

// WithAPIKeys sets the provider API keys and returns the config for chaining.
func (c *Config) WithAPIKeys(keys ...string) *Config {
	c.APIKeys = keys
	return c
}

// WithBaseURL overrides the provider endpoint and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithMarkets restricts the session to the given markets and returns the config for chaining.
func (c *Config) WithMarkets(markets ...MarketType) *Config {
	c.Markets = markets
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithCache enables or disables caching with the specified TTL and returns the config for chaining.
func (c *Config) WithCache(enabled bool, ttl time.Duration) *Config {
	c.CacheEnabled = enabled
	c.CacheTTL = ttl
	return c
}

// WithCircuitBreaker enables or disables the circuit breaker and returns the config for chaining.
func (c *Config) WithCircuitBreaker(enabled bool) *Config {
	c.CircuitBreakerEnabled = enabled
	return c
}

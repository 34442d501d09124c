// Package session executes provider operations for tickers. A session
// combines the provider protocol with caching, circuit breaking, per-market
// rate limiting and API key rotation.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tickr/internal/circuitbreaker"
	"tickr/internal/keyring"
	"tickr/internal/ratelimit"
	"tickr/internal/transport"
	"tickr/pkg/core"
)

// State represents the lifecycle state of a Session.
type State int

const (
	// StateNew indicates a session without a protocol.
	StateNew State = iota
	// StateActive indicates a session ready to process requests.
	StateActive
	// StateClosed indicates a session that has been shut down.
	StateClosed
)

func (s State) String() string {
	return [...]string{"NEW", "ACTIVE", "CLOSED"}[s]
}

// Session is safe for concurrent use.
type Session struct {
	mu             sync.RWMutex
	config         *core.Config
	protocol       core.Protocol
	client         *transport.Client
	keys           *keyring.KeyRing
	rateLimiter    *ratelimit.Limiter
	circuitBreaker *circuitbreaker.Breaker
	cache          *gocache.Cache
	logger         zerolog.Logger
	state          State
	createdAt      time.Time
	lastUsed       time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger. Its level is capped by the
// configured LogLevel.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithKeyRing replaces the key ring built from Config.APIKeys.
func WithKeyRing(keys *keyring.KeyRing) Option {
	return func(s *Session) {
		s.keys = keys
	}
}

// New creates a session from a validated config. The session becomes
// active once a protocol is set.
func New(config *core.Config, opts ...Option) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	now := time.Now()
	s := &Session{
		config:      config,
		keys:        keyring.FromList(config.APIKeys, keyring.RotationOnRateLimit),
		rateLimiter: ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod),
		logger:      zerolog.Nop(),
		state:       StateNew,
		createdAt:   now,
		lastUsed:    now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if config.LogLevel != "" {
		level, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil {
			level = zerolog.InfoLevel
		}
		s.logger = s.logger.Level(level)
	}
	s.logger = s.logger.With().Str("provider", config.Provider).Logger()
	s.keys.WithLogger(s.logger)

	if config.CircuitBreakerEnabled {
		s.circuitBreaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		}).WithLogger(s.logger)
	}

	if config.CacheEnabled {
		s.cache = gocache.New(config.CacheTTL, 2*config.CacheTTL)
	}

	return s, nil
}

// SetProtocol assigns the provider protocol and opens the HTTP client
// against Config.BaseURL, or the protocol's own base URL when unset.
func (s *Session) SetProtocol(protocol core.Protocol) error {
	if protocol == nil {
		return fmt.Errorf("protocol is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return core.ErrSessionClosed
	}

	baseURL := s.config.BaseURL
	if baseURL == "" {
		baseURL = protocol.BaseURL()
	}

	client, err := transport.NewClient(&transport.Config{
		BaseURL:      baseURL,
		Timeout:      s.config.Timeout,
		MaxRetries:   s.config.MaxRetries,
		RetryWaitMin: s.config.RetryWaitMin,
		RetryWaitMax: s.config.RetryWaitMax,
		Headers:      map[string]string{"Accept": "application/json"},
	}, s.logger)
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	if s.client != nil {
		_ = s.client.Close()
	}
	s.client = client
	s.protocol = protocol

	if s.state == StateNew {
		s.state = StateActive
	}
	s.lastUsed = time.Now()

	return nil
}

// Do executes an operation. The request passes through the cache, the
// circuit breaker and the market's rate-limit bucket before it is signed
// and sent.
func (s *Session) Do(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, core.ErrSessionClosed
	}
	if s.protocol == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("protocol not set")
	}
	protocol, client := s.protocol, s.client
	s.lastUsed = time.Now()
	s.mu.Unlock()

	req, err := protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if !s.config.AllowsMarket(req.Market) {
		return nil, fmt.Errorf("%w: %s (%s)", core.ErrUnsupportedMarket, req.Ticker, req.Market)
	}

	log := s.logger.With().
		Str("op", op.String()).
		Str("ticker", req.Ticker).
		Str("market", req.Market.String()).
		Logger()

	if req.CacheKey != "" && s.cache != nil {
		if cached, found := s.cache.Get(req.CacheKey); found {
			log.Debug().Str("cache_key", req.CacheKey).Msg("cache hit")
			return cached, nil
		}
	}

	if s.circuitBreaker != nil && !s.circuitBreaker.Allow() {
		return nil, fmt.Errorf("%w: %s", core.ErrCircuitBreakerOpen, protocol.Name())
	}

	if err := s.rateLimiter.Wait(ctx, req.Market); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var opts []transport.RequestOption
	var key *keyring.APIKey
	if req.RequireAuth && s.keys.Len() > 0 {
		k, ok := s.keys.Next()
		if !ok {
			return nil, core.ErrNoAPIKey
		}
		key = k
		opts = append(opts, func(r *resty.Request) error {
			return protocol.SignRequest(r, key.Key)
		})
	}

	resp, err := client.Do(ctx, req, opts...)
	if err != nil {
		s.record(false)
		return nil, s.transportError(ctx, protocol.Name(), req, err)
	}

	result, err := protocol.ParseResponse(op, resp)
	s.record(!isProviderFailure(resp.StatusCode()))
	if err != nil {
		s.handleKeyError(key, err)
		log.Warn().Err(err).Int("status", resp.StatusCode()).Msg("request failed")
		return nil, err
	}

	if req.CacheKey != "" && s.cache != nil && result != nil {
		// Zero selects the cache default.
		s.cache.Set(req.CacheKey, result, req.CacheTTL)
	}

	return result, nil
}

func (s *Session) record(success bool) {
	if s.circuitBreaker != nil {
		s.circuitBreaker.Record(success)
	}
}

// isProviderFailure reports whether a status counts against the breaker.
// Client errors such as an unknown ticker do not.
func isProviderFailure(status int) bool {
	return status >= 500 || status == 429
}

func (s *Session) handleKeyError(key *keyring.APIKey, err error) {
	if key == nil {
		return
	}
	switch {
	case core.IsAuthenticationError(err):
		s.keys.Disable(key.ID)
	case core.IsRateLimitError(err):
		s.keys.OnError(key.ID, true)
	}
}

func (s *Session) transportError(ctx context.Context, provider string, req *core.Request, err error) error {
	errType := core.ErrorTypeNetwork
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		errType = core.ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return core.NewProviderError(provider, errType, 0, err.Error()).
		WithCode(core.CodeForType(errType)).
		WithTicker(req.Ticker)
}

// GetPrices fetches daily bars for ticker between start and end inclusive.
func (s *Session) GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]core.Price, error) {
	return s.GetPricesInterval(ctx, ticker, start, end, core.IntervalDay, 1)
}

// GetPricesInterval fetches bars of the given width.
func (s *Session) GetPricesInterval(ctx context.Context, ticker string, start, end time.Time, interval core.Interval, multiplier int) ([]core.Price, error) {
	result, err := s.Do(ctx, core.OpGetPrices, core.Params{
		"ticker":              ticker,
		"start_date":          start,
		"end_date":            end,
		"interval":            interval,
		"interval_multiplier": multiplier,
	})
	if err != nil {
		return nil, err
	}
	prices, ok := result.([]core.Price)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return slices.Clone(prices), nil
}

// GetFinancialMetrics fetches up to limit metric snapshots reported on or
// before end.
func (s *Session) GetFinancialMetrics(ctx context.Context, ticker string, end time.Time, period core.ReportPeriod, limit int) ([]core.FinancialMetrics, error) {
	result, err := s.Do(ctx, core.OpGetFinancialMetrics, core.Params{
		"ticker":   ticker,
		"end_date": end,
		"period":   period,
		"limit":    limit,
	})
	if err != nil {
		return nil, err
	}
	metrics, ok := result.([]core.FinancialMetrics)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return slices.Clone(metrics), nil
}

// Close releases the HTTP client and drops cached responses. Later calls
// return core.ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	if s.cache != nil {
		s.cache.Flush()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Protocol() core.Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocol
}

func (s *Session) Config() *core.Config {
	return s.config
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// ClearCache removes all cached responses.
func (s *Session) ClearCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// Stats is a point-in-time view of session activity.
type Stats struct {
	State          string                          `json:"state"`
	CachedItems    int                             `json:"cached_items"`
	RateLimit      ratelimit.MetricsSnapshot       `json:"rate_limit"`
	CircuitBreaker *circuitbreaker.MetricsSnapshot `json:"circuit_breaker,omitempty"`
}

func (s *Session) Stats() Stats {
	stats := Stats{
		State:     s.State().String(),
		RateLimit: s.rateLimiter.Metrics(),
	}
	if s.cache != nil {
		stats.CachedItems = s.cache.ItemCount()
	}
	if s.circuitBreaker != nil {
		m := s.circuitBreaker.Metrics()
		stats.CircuitBreaker = &m
	}
	return stats
}

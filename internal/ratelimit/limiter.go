// Package ratelimit throttles provider requests globally and per market.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"tickr/pkg/core"
)

// Limiter enforces a global request rate plus an independent rate for each
// market, so a burst of NSE lookups cannot starve US lookups.
type Limiter struct {
	global  *rate.Limiter
	mu      sync.RWMutex
	markets map[core.MarketType]*rate.Limiter
	limit   rate.Limit
	burst   int
	metrics metrics
}

type metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// New allows requests per period, with a burst of requests.
func New(requests int, period time.Duration) *Limiter {
	limit := perSecond(requests, period)
	return &Limiter{
		global:  rate.NewLimiter(limit, requests),
		markets: make(map[core.MarketType]*rate.Limiter),
		limit:   limit,
		burst:   requests,
	}
}

func perSecond(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// Wait blocks until both the global limiter and the market's limiter allow
// a request, or ctx is done. MarketUnknown uses only the global limiter.
func (l *Limiter) Wait(ctx context.Context, market core.MarketType) error {
	l.metrics.total.Add(1)
	if err := l.global.Wait(ctx); err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	if market.IsKnown() {
		if err := l.bucket(market).Wait(ctx); err != nil {
			l.metrics.denied.Add(1)
			return err
		}
	}
	l.metrics.allowed.Add(1)
	return nil
}

// Allow reports whether a request for market may proceed now.
func (l *Limiter) Allow(market core.MarketType) bool {
	l.metrics.total.Add(1)
	now := time.Now()

	global := l.global.ReserveN(now, 1)
	if !global.OK() || global.DelayFrom(now) > 0 {
		global.CancelAt(now)
		l.metrics.denied.Add(1)
		return false
	}

	if market.IsKnown() && !l.bucket(market).AllowN(now, 1) {
		global.CancelAt(now)
		l.metrics.denied.Add(1)
		return false
	}

	l.metrics.allowed.Add(1)
	return true
}

// SetMarketLimit overrides the rate for a single market.
func (l *Limiter) SetMarketLimit(market core.MarketType, requests int, period time.Duration) {
	b := l.bucket(market)
	b.SetLimit(perSecond(requests, period))
	b.SetBurst(requests)
}

func (l *Limiter) bucket(market core.MarketType) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.markets[market]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.markets[market]; !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.markets[market] = b
	}
	return b
}

// Metrics returns a snapshot of the current limiter statistics.
func (l *Limiter) Metrics() MetricsSnapshot {
	l.mu.RLock()
	buckets := len(l.markets)
	l.mu.RUnlock()

	return MetricsSnapshot{
		TotalRequests:   l.metrics.total.Load(),
		AllowedRequests: l.metrics.allowed.Load(),
		DeniedRequests:  l.metrics.denied.Load(),
		MarketBuckets:   buckets,
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	MarketBuckets   int
}

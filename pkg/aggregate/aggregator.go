// Package aggregate fetches data for a whole ticker batch at once and
// summarizes it per market.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tickr/pkg/core"
	"tickr/pkg/provider"
	"tickr/pkg/ticker"
)

// DefaultConcurrency bounds in-flight fetches per batch.
const DefaultConcurrency = 4

// PriceFetcher is satisfied by *session.Session.
type PriceFetcher interface {
	GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]core.Price, error)
}

// Aggregator fans batch requests out to the fetcher serving each market.
type Aggregator struct {
	mu          sync.RWMutex
	fallback    PriceFetcher
	markets     map[core.MarketType]PriceFetcher
	router      *provider.Router
	protocols   map[string]PriceFetcher
	concurrency int
	logger      zerolog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for per-ticker failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithConcurrency bounds the number of concurrent fetches. Values below 1
// are ignored.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAggregator returns an aggregator sending every market to fallback
// unless a market-specific fetcher is added.
func NewAggregator(fallback PriceFetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		fallback:    fallback,
		markets:     make(map[core.MarketType]PriceFetcher),
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetcherFactory opens a fetcher bound to protocol p.
type FetcherFactory func(p core.Protocol) (PriceFetcher, error)

// FromRouter returns an aggregator that resolves every ticker through r and
// sends it to the fetcher opened for its protocol. open is called once per
// distinct protocol registered in r.
func FromRouter(r *provider.Router, open FetcherFactory, opts ...Option) (*Aggregator, error) {
	a := NewAggregator(nil, opts...)
	a.router = r
	a.protocols = make(map[string]PriceFetcher)

	for _, m := range r.Markets() {
		p, err := r.Get(m)
		if err != nil {
			return nil, err
		}
		if _, ok := a.protocols[p.Name()]; ok {
			continue
		}
		f, err := open(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p.Name(), err)
		}
		a.protocols[p.Name()] = f
	}
	return a, nil
}

// AddSession routes tickers of market to f.
func (a *Aggregator) AddSession(market core.MarketType, f PriceFetcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markets[market] = f
}

// RemoveSession drops the market-specific fetcher for market.
func (a *Aggregator) RemoveSession(market core.MarketType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.markets, market)
}

// fetcherFor prefers a market-specific fetcher, then the router, then the
// fallback.
func (a *Aggregator) fetcherFor(t string, market core.MarketType) (PriceFetcher, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if f, ok := a.markets[market]; ok {
		return f, nil
	}
	if a.router != nil {
		_, p, err := a.router.Route(t)
		if err != nil {
			return nil, err
		}
		if f, ok := a.protocols[p.Name()]; ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %s has no open fetcher", core.ErrUnsupportedMarket, p.Name())
	}
	if a.fallback == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedMarket, market)
	}
	return a.fallback, nil
}

// TickerResult holds the prices or error for one ticker of a batch.
type TickerResult struct {
	Ticker string          `json:"ticker"`
	Market core.MarketType `json:"market"`
	Prices []core.Price    `json:"prices,omitempty"`
	Err    error           `json:"-"`
}

// BatchResult is the outcome of FetchBatch. Results follow the order of the
// valid tickers in the input.
type BatchResult struct {
	Results []TickerResult `json:"results"`
	Invalid []string       `json:"invalid"`
}

// Succeeded returns results without an error.
func (b *BatchResult) Succeeded() []TickerResult {
	out := make([]TickerResult, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns results with an error.
func (b *BatchResult) Failed() []TickerResult {
	var out []TickerResult
	for _, r := range b.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// FetchBatch parses a comma-separated batch, then fetches prices for every
// valid ticker concurrently. A failing ticker records its error in its own
// result and does not affect the others. The returned error is non-nil only
// when ctx ends before the batch completes.
func (a *Aggregator) FetchBatch(ctx context.Context, batch string, start, end time.Time) (*BatchResult, error) {
	valid, invalid := ticker.ParseAndValidate(batch)
	for _, t := range invalid {
		a.logger.Warn().Str("ticker", t).Msg("skipping invalid ticker")
	}

	result := &BatchResult{
		Results: make([]TickerResult, len(valid)),
		Invalid: invalid,
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, t := range valid {
		market := ticker.Market(t)
		result.Results[i] = TickerResult{Ticker: t, Market: market}

		g.Go(func() error {
			r := &result.Results[i]

			f, err := a.fetcherFor(t, market)
			if err != nil {
				r.Err = err
				return nil
			}
			if err := ctx.Err(); err != nil {
				r.Err = err
				return nil
			}

			prices, err := f.GetPrices(ctx, t, start, end)
			if err != nil {
				a.logger.Warn().Err(err).Str("ticker", t).Str("market", market.String()).Msg("fetch prices failed")
				r.Err = err
				return nil
			}
			r.Prices = prices
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// CloseSummary is the last close of a ticker over the fetched range.
type CloseSummary struct {
	Ticker   string          `json:"ticker"`
	Market   core.MarketType `json:"market"`
	Currency string          `json:"currency"`
	Time     time.Time       `json:"time"`
	Close    apd.Decimal     `json:"close"`
	// ChangePercent is the move from the first to the last close.
	ChangePercent apd.Decimal `json:"change_percent"`
}

// LatestClose summarizes each successful result with prices, grouped by
// market. Within a market the batch order is kept.
func LatestClose(b *BatchResult) (map[core.MarketType][]CloseSummary, error) {
	out := make(map[core.MarketType][]CloseSummary)
	for _, r := range b.Results {
		if r.Err != nil || len(r.Prices) == 0 {
			continue
		}

		first, last := r.Prices[0], r.Prices[0]
		for _, p := range r.Prices[1:] {
			if p.Time.Before(first.Time) {
				first = p
			}
			if !p.Time.Before(last.Time) {
				last = p
			}
		}

		summary := CloseSummary{
			Ticker:   r.Ticker,
			Market:   r.Market,
			Currency: r.Market.Currency(),
			Time:     last.Time,
			Close:    last.Close,
		}

		if !first.Close.IsZero() {
			var change apd.Decimal
			if _, err := apd.BaseContext.Sub(&change, &last.Close, &first.Close); err != nil {
				return nil, fmt.Errorf("calculate change for %s: %w", r.Ticker, err)
			}
			var hundred apd.Decimal
			hundred.SetInt64(100)
			if _, err := apd.BaseContext.Mul(&change, &change, &hundred); err != nil {
				return nil, fmt.Errorf("calculate change percent multiply: %w", err)
			}
			ctx := apd.BaseContext.WithPrecision(16)
			if _, err := ctx.Quo(&summary.ChangePercent, &change, &first.Close); err != nil {
				return nil, fmt.Errorf("calculate change percent divide: %w", err)
			}
		}

		out[r.Market] = append(out[r.Market], summary)
	}
	return out, nil
}

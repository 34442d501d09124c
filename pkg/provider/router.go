// Package provider routes tickers to the market-data protocol serving their
// market.
package provider

import (
	"fmt"
	"slices"
	"sync"

	"tickr/pkg/core"
	"tickr/pkg/ticker"
)

// Router is a thread-safe registry mapping markets to protocols.
type Router struct {
	mu     sync.RWMutex
	routes map[core.MarketType]core.Protocol
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[core.MarketType]core.Protocol),
	}
}

// Register routes every market in p.SupportedMarkets to p. Existing routes
// for those markets are overwritten.
func (r *Router) Register(p core.Protocol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range p.SupportedMarkets() {
		r.routes[m] = p
	}
}

// RegisterMarket routes a single market to p.
func (r *Router) RegisterMarket(market core.MarketType, p core.Protocol) error {
	if !market.IsKnown() {
		return fmt.Errorf("%w: %s", core.ErrUnsupportedMarket, market)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[market] = p
	return nil
}

// Get returns the protocol registered for market.
func (r *Router) Get(market core.MarketType) (core.Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.routes[market]
	if !exists {
		return nil, fmt.Errorf("%w: no provider for %s", core.ErrUnsupportedMarket, market)
	}
	return p, nil
}

// Route classifies raw and returns its normalized symbol together with the
// protocol for its market. Invalid tickers fail with an INVALID_SYMBOL
// provider error.
func (r *Router) Route(raw string) (ticker.Symbol, core.Protocol, error) {
	sym, err := ticker.Parse(raw)
	if err != nil {
		return ticker.Symbol{}, nil, err
	}
	p, err := r.Get(sym.Market)
	if err != nil {
		return ticker.Symbol{}, nil, err
	}
	return sym, p, nil
}

// Markets returns the routed markets in declaration order.
func (r *Router) Markets() []core.MarketType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	markets := make([]core.MarketType, 0, len(r.routes))
	for m := range r.routes {
		markets = append(markets, m)
	}
	slices.Sort(markets)
	return markets
}

// Unregister removes the route for market.
func (r *Router) Unregister(market core.MarketType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, market)
}

// Clear removes every route.
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = make(map[core.MarketType]core.Protocol)
}

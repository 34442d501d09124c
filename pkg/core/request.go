package core

import (
	"maps"
	"time"
)

type Params map[string]any

// Request is a provider-neutral description of an HTTP call. Protocols build
// it, sessions execute it.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       Params            `json:"query,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Ticker      string            `json:"ticker,omitempty"`
	Market      MarketType        `json:"market"`
	CacheKey    string            `json:"cache_key,omitempty"`
	CacheTTL    time.Duration     `json:"cache_ttl,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
	}
}

func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetTicker records the normalized ticker and its market. The session uses
// the market to pick a rate-limit bucket.
func (r *Request) SetTicker(ticker string, market MarketType) *Request {
	r.Ticker = ticker
	r.Market = market
	return r
}

func (r *Request) SetCache(key string, ttl time.Duration) *Request {
	r.CacheKey = key
	r.CacheTTL = ttl
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

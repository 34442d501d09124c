package core

import (
	"context"

	"resty.dev/v3"
)

// Protocol defines the interface for market-data provider implementations.
// Each provider handles request building, response parsing and
// authentication for its own API.
type Protocol interface {
	// Name returns the provider identifier (e.g., "financialdatasets").
	Name() string

	// BaseURL returns the API base URL.
	BaseURL() string

	// BuildRequest constructs an HTTP request for the specified operation.
	// Implementations must reject tickers that do not classify into one of
	// SupportedMarkets before any network call is made.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// ParseResponse deserializes the HTTP response and normalizes it to
	// canonical types.
	ParseResponse(op Operation, resp *resty.Response) (any, error)

	// SignRequest adds the API key header to the request.
	SignRequest(req *resty.Request, apiKey string) error

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// SupportedMarkets returns the markets whose tickers the provider accepts.
	SupportedMarkets() []MarketType
}

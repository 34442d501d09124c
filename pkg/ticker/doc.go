// Package ticker normalizes and classifies stock ticker symbols for the US,
// NSE (".NS") and BSE (".BO") markets.
//
// Every function is total: invalid input yields core.MarketUnknown, false,
// or an entry in the invalid list of ParseAndValidate rather than an error.
// Parse is the exception and returns a typed *core.ProviderError for callers
// that want to reject input outright.
//
// All functions are pure and safe for concurrent use.
package ticker

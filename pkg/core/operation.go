package core

// Operation identifies a request a market-data provider can serve.
type Operation int

// Operation constants define the supported provider operations.
const (
	// OpGetPrices retrieves OHLCV bars for a ticker over a date range.
	OpGetPrices Operation = iota
	// OpGetFinancialMetrics retrieves valuation and profitability ratios.
	OpGetFinancialMetrics
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	names := [...]string{
		"GET_PRICES",
		"GET_FINANCIAL_METRICS",
	}
	if o < 0 || int(o) >= len(names) {
		return "UNKNOWN"
	}
	return names[o]
}

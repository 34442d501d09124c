package core

import "strings"

// MarketType identifies the stock market a ticker trades on.
// The zero value is MarketUnknown.
type MarketType int

// Market type constants define the markets a ticker can be classified into.
const (
	// MarketUnknown is returned for tickers that match no supported format.
	MarketUnknown MarketType = iota
	// MarketUS covers unsuffixed US symbols such as AAPL.
	MarketUS
	// MarketNSE is the National Stock Exchange of India (".NS" suffix).
	MarketNSE
	// MarketBSE is the Bombay Stock Exchange (".BO" suffix).
	MarketBSE
)

var marketNames = [...]string{
	"UNKNOWN",
	"US",
	"NSE",
	"BSE",
}

// String returns the market tag ("US", "NSE", "BSE" or "UNKNOWN").
func (m MarketType) String() string {
	if m < 0 || int(m) >= len(marketNames) {
		return marketNames[MarketUnknown]
	}
	return marketNames[m]
}

// IsIndian reports whether the market is NSE or BSE.
func (m MarketType) IsIndian() bool {
	return m == MarketNSE || m == MarketBSE
}

// IsKnown reports whether the market is anything other than MarketUnknown.
func (m MarketType) IsKnown() bool {
	return m == MarketUS || m.IsIndian()
}

// Currency returns the ISO currency code prices on the market are quoted in.
func (m MarketType) Currency() string {
	switch m {
	case MarketUS:
		return "USD"
	case MarketNSE, MarketBSE:
		return "INR"
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler for MarketType.
func (m MarketType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for MarketType.
// Unrecognized values decode to MarketUnknown.
func (m *MarketType) UnmarshalJSON(data []byte) error {
	*m = ParseMarketType(strings.Trim(string(data), `"`))
	return nil
}

// ParseMarketType converts a market tag to a MarketType, ignoring case.
func ParseMarketType(s string) MarketType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US":
		return MarketUS
	case "NSE":
		return MarketNSE
	case "BSE":
		return MarketBSE
	default:
		return MarketUnknown
	}
}

// Markets returns every known market in declaration order.
func Markets() []MarketType {
	return []MarketType{MarketUS, MarketNSE, MarketBSE}
}

package ticker

import (
	"strings"

	"tickr/pkg/core"
)

// source is the Provider recorded on validation errors.
const source = "ticker"

// Symbol is a validated ticker split into its parts.
type Symbol struct {
	// Ticker is the normalized form, suffix included.
	Ticker string `json:"ticker"`
	// Base is the part before any exchange suffix.
	Base string `json:"base"`
	// Suffix is ".NS", ".BO" or empty for US tickers.
	Suffix string          `json:"suffix,omitempty"`
	Market core.MarketType `json:"market"`
}

func (s Symbol) String() string {
	return s.Ticker
}

// IsIndian reports whether the symbol trades on NSE or BSE.
func (s Symbol) IsIndian() bool {
	return s.Market.IsIndian()
}

// Parse normalizes and validates raw. Invalid input returns a
// *core.ProviderError with code core.ErrCodeInvalidSymbol.
func Parse(raw string) (Symbol, error) {
	normalized := Normalize(raw)
	ok, market := Validate(normalized)
	if !ok {
		return Symbol{}, core.NewInvalidTickerError(source, raw)
	}

	base, suffix := Split(normalized)
	return Symbol{
		Ticker: normalized,
		Base:   base,
		Suffix: suffix,
		Market: market,
	}, nil
}

// MustParse is like Parse but panics on invalid input.
func MustParse(raw string) Symbol {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Split separates a recognized exchange suffix from a normalized ticker.
// When no suffix applies the whole ticker is returned as base.
func Split(normalized string) (base, suffix string) {
	for _, s := range exchangeSuffixes {
		if b, ok := strings.CutSuffix(normalized, s.suffix); ok && b != "" {
			return b, s.suffix
		}
	}
	return normalized, ""
}

// Suffix returns the ticker suffix used for market, or "" for US and
// unknown markets.
func Suffix(market core.MarketType) string {
	for _, s := range exchangeSuffixes {
		if s.market == market {
			return s.suffix
		}
	}
	return ""
}

// WithMarket returns base listed on market, e.g. WithMarket("TCS", NSE) is
// "TCS.NS". The base is normalized and any existing suffix is replaced.
func WithMarket(base string, market core.MarketType) string {
	b, _ := Split(Normalize(base))
	return b + Suffix(market)
}

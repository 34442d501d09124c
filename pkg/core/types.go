package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Interval is the bar width requested from a price endpoint.
type Interval int

// Interval constants define the supported price bar widths.
const (
	// IntervalDay requests daily bars.
	IntervalDay Interval = iota
	// IntervalWeek requests weekly bars.
	IntervalWeek
	// IntervalMonth requests monthly bars.
	IntervalMonth
	// IntervalMinute requests intraday minute bars.
	IntervalMinute
)

// String returns the provider query value for the interval.
func (i Interval) String() string {
	return [...]string{"day", "week", "month", "minute"}[i]
}

// MarshalJSON implements json.Marshaler for Interval.
func (i Interval) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Interval.
// It accepts both uppercase and lowercase formats.
func (i *Interval) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"day"`, `"DAY"`:
		*i = IntervalDay
	case `"week"`, `"WEEK"`:
		*i = IntervalWeek
	case `"month"`, `"MONTH"`:
		*i = IntervalMonth
	case `"minute"`, `"MINUTE"`:
		*i = IntervalMinute
	}
	return nil
}

// ReportPeriod selects which financial statements a metrics request covers.
type ReportPeriod int

// Report period constants.
const (
	// PeriodTTM is trailing twelve months.
	PeriodTTM ReportPeriod = iota
	// PeriodAnnual is fiscal-year statements.
	PeriodAnnual
	// PeriodQuarterly is quarterly statements.
	PeriodQuarterly
)

// String returns the provider query value for the period.
func (p ReportPeriod) String() string {
	return [...]string{"ttm", "annual", "quarterly"}[p]
}

// MarshalJSON implements json.Marshaler for ReportPeriod.
func (p ReportPeriod) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for ReportPeriod.
func (p *ReportPeriod) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"ttm"`, `"TTM"`:
		*p = PeriodTTM
	case `"annual"`, `"ANNUAL"`:
		*p = PeriodAnnual
	case `"quarterly"`, `"QUARTERLY"`:
		*p = PeriodQuarterly
	}
	return nil
}

// Price is a single OHLCV bar for a ticker.
type Price struct {
	// Ticker is the normalized ticker, suffix included (e.g. "RELIANCE.NS").
	Ticker string `json:"ticker"`
	// Market is the classification of Ticker.
	Market MarketType `json:"market"`
	// Time is the start of the bar.
	Time time.Time `json:"time"`
	// Open is the price at the start of the bar.
	Open apd.Decimal `json:"open"`
	// High is the highest traded price during the bar.
	High apd.Decimal `json:"high"`
	// Low is the lowest traded price during the bar.
	Low apd.Decimal `json:"low"`
	// Close is the price at the end of the bar.
	Close apd.Decimal `json:"close"`
	// Volume is the number of shares traded.
	Volume int64 `json:"volume"`
}

// FinancialMetrics is a snapshot of valuation and profitability ratios
// for one reporting period.
type FinancialMetrics struct {
	Ticker       string       `json:"ticker"`
	Market       MarketType   `json:"market"`
	ReportPeriod time.Time    `json:"report_period"`
	Period       ReportPeriod `json:"period"`
	// Currency is the reporting currency; INR for Indian listings.
	Currency string `json:"currency"`

	MarketCap            apd.Decimal `json:"market_cap"`
	EnterpriseValue      apd.Decimal `json:"enterprise_value"`
	PriceToEarnings      apd.Decimal `json:"price_to_earnings_ratio"`
	PriceToBook          apd.Decimal `json:"price_to_book_ratio"`
	PriceToSales         apd.Decimal `json:"price_to_sales_ratio"`
	GrossMargin          apd.Decimal `json:"gross_margin"`
	OperatingMargin      apd.Decimal `json:"operating_margin"`
	NetMargin            apd.Decimal `json:"net_margin"`
	ReturnOnEquity       apd.Decimal `json:"return_on_equity"`
	DebtToEquity         apd.Decimal `json:"debt_to_equity"`
	RevenueGrowth        apd.Decimal `json:"revenue_growth"`
	EarningsPerShare     apd.Decimal `json:"earnings_per_share"`
	BookValuePerShare    apd.Decimal `json:"book_value_per_share"`
	FreeCashFlowPerShare apd.Decimal `json:"free_cash_flow_per_share"`
}

package financialdatasets

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"tickr/pkg/core"
	"tickr/pkg/ticker"
)

// pricesResponse is the body of GET /prices/.
type pricesResponse struct {
	Ticker string     `json:"ticker"`
	Prices []rawPrice `json:"prices"`
}

// rawPrice is a single bar as returned by the API.
type rawPrice struct {
	Time   string      `json:"time"`
	Open   json.Number `json:"open"`
	High   json.Number `json:"high"`
	Low    json.Number `json:"low"`
	Close  json.Number `json:"close"`
	Volume json.Number `json:"volume"`
}

// metricsResponse is the body of GET /financial-metrics/.
type metricsResponse struct {
	FinancialMetrics []rawMetrics `json:"financial_metrics"`
}

type rawMetrics struct {
	Ticker               string      `json:"ticker"`
	ReportPeriod         string      `json:"report_period"`
	Period               string      `json:"period"`
	Currency             string      `json:"currency"`
	MarketCap            json.Number `json:"market_cap"`
	EnterpriseValue      json.Number `json:"enterprise_value"`
	PriceToEarnings      json.Number `json:"price_to_earnings_ratio"`
	PriceToBook          json.Number `json:"price_to_book_ratio"`
	PriceToSales         json.Number `json:"price_to_sales_ratio"`
	GrossMargin          json.Number `json:"gross_margin"`
	OperatingMargin      json.Number `json:"operating_margin"`
	NetMargin            json.Number `json:"net_margin"`
	ReturnOnEquity       json.Number `json:"return_on_equity"`
	DebtToEquity         json.Number `json:"debt_to_equity"`
	RevenueGrowth        json.Number `json:"revenue_growth"`
	EarningsPerShare     json.Number `json:"earnings_per_share"`
	BookValuePerShare    json.Number `json:"book_value_per_share"`
	FreeCashFlowPerShare json.Number `json:"free_cash_flow_per_share"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

// Normalizer converts Financial Datasets payloads to core types.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizePrice converts one bar. tickerName is normalized and classified
// so Indian bars carry their NSE or BSE market.
func (n *Normalizer) NormalizePrice(tickerName string, data *rawPrice) (*core.Price, error) {
	normalized := ticker.Normalize(tickerName)
	price := &core.Price{
		Ticker: normalized,
		Market: ticker.Market(normalized),
	}

	ts, err := parseTime(data.Time)
	if err != nil {
		return nil, fmt.Errorf("parse time: %w", err)
	}
	price.Time = ts

	if err := parseDecimal(&price.Open, data.Open); err != nil {
		return nil, fmt.Errorf("parse open: %w", err)
	}
	if err := parseDecimal(&price.High, data.High); err != nil {
		return nil, fmt.Errorf("parse high: %w", err)
	}
	if err := parseDecimal(&price.Low, data.Low); err != nil {
		return nil, fmt.Errorf("parse low: %w", err)
	}
	if err := parseDecimal(&price.Close, data.Close); err != nil {
		return nil, fmt.Errorf("parse close: %w", err)
	}

	volume, err := parseVolume(data.Volume)
	if err != nil {
		return nil, fmt.Errorf("parse volume: %w", err)
	}
	price.Volume = volume

	return price, nil
}

// NormalizePrices converts a list of bars, preserving order.
func (n *Normalizer) NormalizePrices(tickerName string, data []rawPrice) ([]core.Price, error) {
	prices := make([]core.Price, 0, len(data))
	for i := range data {
		price, err := n.NormalizePrice(tickerName, &data[i])
		if err != nil {
			return nil, fmt.Errorf("normalize price %d: %w", i, err)
		}
		prices = append(prices, *price)
	}
	return prices, nil
}

// NormalizeFinancialMetrics converts metrics records. Each record's own
// ticker wins over fallbackTicker when present.
func (n *Normalizer) NormalizeFinancialMetrics(fallbackTicker string, data []rawMetrics) ([]core.FinancialMetrics, error) {
	result := make([]core.FinancialMetrics, 0, len(data))
	for i := range data {
		m, err := n.normalizeMetrics(fallbackTicker, &data[i])
		if err != nil {
			return nil, fmt.Errorf("normalize financial metrics %d: %w", i, err)
		}
		result = append(result, *m)
	}
	return result, nil
}

func (n *Normalizer) normalizeMetrics(fallbackTicker string, data *rawMetrics) (*core.FinancialMetrics, error) {
	name := data.Ticker
	if name == "" {
		name = fallbackTicker
	}
	normalized := ticker.Normalize(name)
	market := ticker.Market(normalized)

	m := &core.FinancialMetrics{
		Ticker:   normalized,
		Market:   market,
		Period:   parsePeriod(data.Period),
		Currency: strings.ToUpper(data.Currency),
	}
	if m.Currency == "" {
		m.Currency = market.Currency()
	}

	if data.ReportPeriod != "" {
		ts, err := parseTime(data.ReportPeriod)
		if err != nil {
			return nil, fmt.Errorf("parse report period: %w", err)
		}
		m.ReportPeriod = ts
	}

	fields := []struct {
		name string
		dest *apd.Decimal
		src  json.Number
	}{
		{"market_cap", &m.MarketCap, data.MarketCap},
		{"enterprise_value", &m.EnterpriseValue, data.EnterpriseValue},
		{"price_to_earnings_ratio", &m.PriceToEarnings, data.PriceToEarnings},
		{"price_to_book_ratio", &m.PriceToBook, data.PriceToBook},
		{"price_to_sales_ratio", &m.PriceToSales, data.PriceToSales},
		{"gross_margin", &m.GrossMargin, data.GrossMargin},
		{"operating_margin", &m.OperatingMargin, data.OperatingMargin},
		{"net_margin", &m.NetMargin, data.NetMargin},
		{"return_on_equity", &m.ReturnOnEquity, data.ReturnOnEquity},
		{"debt_to_equity", &m.DebtToEquity, data.DebtToEquity},
		{"revenue_growth", &m.RevenueGrowth, data.RevenueGrowth},
		{"earnings_per_share", &m.EarningsPerShare, data.EarningsPerShare},
		{"book_value_per_share", &m.BookValuePerShare, data.BookValuePerShare},
		{"free_cash_flow_per_share", &m.FreeCashFlowPerShare, data.FreeCashFlowPerShare},
	}
	for _, f := range fields {
		if err := parseDecimal(f.dest, f.src); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}

	return m, nil
}

func parsePeriod(s string) core.ReportPeriod {
	switch strings.ToLower(s) {
	case "annual":
		return core.PeriodAnnual
	case "quarterly":
		return core.PeriodQuarterly
	default:
		return core.PeriodTTM
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// parseDecimal leaves dest at zero for absent or null values.
func parseDecimal(dest *apd.Decimal, n json.Number) error {
	if n == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, n.String())
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", n, err)
	}
	return nil
}

func parseVolume(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

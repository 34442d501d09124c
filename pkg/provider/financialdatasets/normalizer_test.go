package financialdatasets

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickr/pkg/core"
)

func TestNormalizer_NormalizePrice(t *testing.T) {
	n := NewNormalizer()

	price, err := n.NormalizePrice("tcs.bo", &rawPrice{
		Time:   "2024-03-05 00:00:00",
		Open:   "3900.5",
		High:   "3950",
		Low:    "3880.25",
		Close:  "3940.1",
		Volume: "125000.0",
	})
	require.NoError(t, err)

	assert.Equal(t, "TCS.BO", price.Ticker)
	assert.Equal(t, core.MarketBSE, price.Market)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), price.Time)
	assert.Equal(t, "3900.5", price.Open.String())
	assert.Equal(t, "3880.25", price.Low.String())
	assert.Equal(t, int64(125000), price.Volume)
}

func TestNormalizer_NormalizePrice_Errors(t *testing.T) {
	n := NewNormalizer()

	_, err := n.NormalizePrice("AAPL", &rawPrice{Time: "yesterday"})
	assert.Error(t, err)

	_, err = n.NormalizePrice("AAPL", &rawPrice{Time: "2024-01-01", Open: "abc"})
	assert.Error(t, err)

	_, err = n.NormalizePrice("AAPL", &rawPrice{Time: "2024-01-01", Volume: "lots"})
	assert.Error(t, err)
}

func TestNormalizer_NormalizePrices_PreservesOrder(t *testing.T) {
	n := NewNormalizer()

	prices, err := n.NormalizePrices("AAPL", []rawPrice{
		{Time: "2024-01-02", Close: "185.64"},
		{Time: "2024-01-03", Close: "184.25"},
	})
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.Equal(t, "185.64", prices[0].Close.String())
	assert.Equal(t, "184.25", prices[1].Close.String())
	assert.Equal(t, core.MarketUS, prices[1].Market)
}

func TestNormalizer_NormalizeFinancialMetrics(t *testing.T) {
	n := NewNormalizer()

	metrics, err := n.NormalizeFinancialMetrics("INFY.NS", []rawMetrics{
		{ReportPeriod: "2023-12-31", Period: "annual", EarningsPerShare: json.Number("63.39")},
		{Ticker: "aapl", ReportPeriod: "2023-09-30", Period: "QUARTERLY", Currency: "usd"},
	})
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	assert.Equal(t, "INFY.NS", metrics[0].Ticker)
	assert.Equal(t, core.MarketNSE, metrics[0].Market)
	assert.Equal(t, "INR", metrics[0].Currency)
	assert.Equal(t, core.PeriodAnnual, metrics[0].Period)
	assert.Equal(t, "63.39", metrics[0].EarningsPerShare.String())

	assert.Equal(t, "AAPL", metrics[1].Ticker)
	assert.Equal(t, "USD", metrics[1].Currency)
	assert.Equal(t, core.PeriodQuarterly, metrics[1].Period)
}

func TestNormalizer_NormalizeFinancialMetrics_BadValue(t *testing.T) {
	_, err := NewNormalizer().NormalizeFinancialMetrics("AAPL", []rawMetrics{
		{ReportPeriod: "2023-12-31", MarketCap: "twelve"},
	})
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T09:15:00Z", time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-01-01T09:15:00+05:30", time.Date(2024, 1, 1, 3, 45, 0, 0, time.UTC)},
		{"2024-01-01 09:15:00", time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

package core

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_String(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		want     string
	}{
		{"day", IntervalDay, "day"},
		{"week", IntervalWeek, "week"},
		{"month", IntervalMonth, "month"},
		{"minute", IntervalMinute, "minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.interval.String())
		})
	}
}

func TestInterval_UnmarshalJSON(t *testing.T) {
	var i Interval
	require.NoError(t, sonic.Unmarshal([]byte(`"WEEK"`), &i))
	assert.Equal(t, IntervalWeek, i)
}

func TestReportPeriod_JSON(t *testing.T) {
	data, err := sonic.Marshal(PeriodQuarterly)
	require.NoError(t, err)
	assert.Equal(t, `"quarterly"`, string(data))

	var p ReportPeriod
	require.NoError(t, sonic.Unmarshal([]byte(`"annual"`), &p))
	assert.Equal(t, PeriodAnnual, p)
}

func TestPrice_JSON(t *testing.T) {
	price := Price{
		Ticker: "RELIANCE.NS",
		Market: MarketNSE,
		Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Volume: 5000000,
	}
	price.Close.SetString("2510.0")

	data, err := sonic.Marshal(&price)
	require.NoError(t, err)

	var out Price
	require.NoError(t, sonic.Unmarshal(data, &out))
	assert.Equal(t, "RELIANCE.NS", out.Ticker)
	assert.Equal(t, MarketNSE, out.Market)
	assert.Equal(t, int64(5000000), out.Volume)
	assert.Equal(t, 0, out.Close.Cmp(apd.New(25100, -1)))
}

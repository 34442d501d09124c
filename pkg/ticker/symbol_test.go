package ticker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickr/pkg/core"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Symbol
	}{
		{"aapl", Symbol{Ticker: "AAPL", Base: "AAPL", Market: core.MarketUS}},
		{" reliance.ns ", Symbol{Ticker: "RELIANCE.NS", Base: "RELIANCE", Suffix: ".NS", Market: core.MarketNSE}},
		{"TCS.BO", Symbol{Ticker: "TCS.BO", Base: "TCS", Suffix: ".BO", Market: core.MarketBSE}},
		{"A@APL!", Symbol{Ticker: "AAPL", Base: "AAPL", Market: core.MarketUS}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Ticker, got.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", ".NS", "123456", "VOD.L", "TOOLONG"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, core.IsErrorCode(err, core.ErrCodeInvalidSymbol))
			assert.True(t, core.IsInvalidTickerError(err))

			var pe *core.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, in, pe.Ticker)
		})
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, core.MarketNSE, MustParse("infy.ns").Market)
	assert.True(t, MustParse("infy.ns").IsIndian())
	assert.Panics(t, func() { MustParse("bad!!!1") })
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in         string
		wantBase   string
		wantSuffix string
	}{
		{"RELIANCE.NS", "RELIANCE", ".NS"},
		{"TCS.BO", "TCS", ".BO"},
		{"AAPL", "AAPL", ""},
		{".NS", ".NS", ""},
		{"VOD.L", "VOD.L", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, suffix := Split(tt.in)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantSuffix, suffix)
		})
	}
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, ".NS", Suffix(core.MarketNSE))
	assert.Equal(t, ".BO", Suffix(core.MarketBSE))
	assert.Equal(t, "", Suffix(core.MarketUS))
	assert.Equal(t, "", Suffix(core.MarketUnknown))
}

func TestWithMarket(t *testing.T) {
	assert.Equal(t, "TCS.NS", WithMarket("tcs", core.MarketNSE))
	assert.Equal(t, "TCS.BO", WithMarket("TCS.NS", core.MarketBSE))
	assert.Equal(t, "RELIANCE", WithMarket("reliance.ns", core.MarketUS))
}

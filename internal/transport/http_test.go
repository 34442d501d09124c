package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"tickr/pkg/core"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(testConfig("https://api.financialdatasets.ai"), zerolog.Nop())

	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil", nil},
		{"missing_base_url", &Config{Timeout: time.Second}},
		{"bad_base_url", &Config{BaseURL: "::nope", Timeout: time.Second}},
		{"zero_timeout", &Config{BaseURL: "https://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config, zerolog.Nop())
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/prices/", r.URL.Path)
		assert.Equal(t, "RELIANCE.NS", r.URL.Query().Get("ticker"))
		assert.Equal(t, "2024-01-02", r.URL.Query().Get("start_date"))
		assert.Equal(t, "day", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ticker":"RELIANCE.NS"}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), zerolog.Nop())
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/prices/", core.Params{
		"ticker":     "RELIANCE.NS",
		"start_date": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"interval":   core.IntervalDay,
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.True(t, resp.IsSuccess())
	assert.JSONEq(t, `{"ticker":"RELIANCE.NS"}`, string(resp.Bytes()))
}

func TestClient_Do_HeadersAndOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "static", r.Header.Get("X-Static"))
		assert.Equal(t, "per-request", r.Header.Get("X-Request"))
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.Headers = map[string]string{"X-Static": "static"}
	client, err := NewClient(config, zerolog.Nop())
	require.NoError(t, err)

	req := core.NewRequest("GET", "/financial-metrics/").SetHeader("X-Request", "per-request")
	resp, err := client.Do(context.Background(), req, func(r *resty.Request) error {
		r.SetHeader("X-API-KEY", "secret")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
}

func TestClient_Do_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"ticker not found"}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), zerolog.Nop())
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/prices/", nil)
	require.NoError(t, err)
	assert.True(t, resp.IsError())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestClient_Do_OptionError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Do(context.Background(), core.NewRequest("GET", "/"), func(*resty.Request) error {
		return core.ErrNoAPIKey
	})
	assert.ErrorIs(t, err, core.ErrNoAPIKey)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_Do_UnsupportedMethod(t *testing.T) {
	client, err := NewClient(testConfig("https://example.com"), zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Do(context.Background(), core.NewRequest("TRACE", "/"))
	assert.ErrorContains(t, err, "unsupported http method")
}

func TestClient_Close(t *testing.T) {
	client, err := NewClient(testConfig("https://example.com"), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Get(context.Background(), "/", nil)
	assert.ErrorContains(t, err, "closed")
}

func TestParamsToStringMap(t *testing.T) {
	got := ParamsToStringMap(core.Params{
		"s":        "TCS.BO",
		"i":        5,
		"i64":      int64(7),
		"f":        1.5,
		"b":        true,
		"date":     time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		"interval": core.IntervalWeek,
		"market":   core.MarketNSE,
	})

	assert.Equal(t, map[string]string{
		"s":        "TCS.BO",
		"i":        "5",
		"i64":      "7",
		"f":        "1.5",
		"b":        "true",
		"date":     "2024-03-15",
		"interval": "week",
		"market":   "NSE",
	}, got)
}

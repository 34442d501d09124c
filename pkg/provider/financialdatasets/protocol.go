package financialdatasets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"tickr/pkg/core"
	"tickr/pkg/ticker"
)

const (
	ProductionURL = "https://api.financialdatasets.ai"

	// APIKeyHeader carries the key on every authenticated request.
	APIKeyHeader = "X-API-KEY"

	pricesPath  = "/prices/"
	metricsPath = "/financial-metrics/"

	defaultMetricsLimit = 10
	dateLayout          = "2006-01-02"
)

// Param keys accepted by BuildRequest.
const (
	ParamTicker             = "ticker"
	ParamStartDate          = "start_date"
	ParamEndDate            = "end_date"
	ParamInterval           = "interval"
	ParamIntervalMultiplier = "interval_multiplier"
	ParamPeriod             = "period"
	ParamLimit              = "limit"
)

// Protocol implements core.Protocol for Financial Datasets.
type Protocol struct {
	markets []core.MarketType
}

// NewProtocol returns a protocol accepting every known market.
func NewProtocol() *Protocol {
	return &Protocol{markets: core.Markets()}
}

// NewProtocolForMarkets restricts the protocol to the given markets.
func NewProtocolForMarkets(markets ...core.MarketType) *Protocol {
	return &Protocol{markets: slices.Clone(markets)}
}

func (p *Protocol) Name() string {
	return "financialdatasets"
}

func (p *Protocol) BaseURL() string {
	return ProductionURL
}

func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetPrices,
		core.OpGetFinancialMetrics,
	}
}

func (p *Protocol) SupportedMarkets() []core.MarketType {
	return slices.Clone(p.markets)
}

// BuildRequest validates the ticker and builds the provider request. Tickers
// that fail validation or belong to an unsupported market are rejected here
// so nothing reaches the network.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	sym, err := p.symbol(params)
	if err != nil {
		return nil, err
	}

	switch op {
	case core.OpGetPrices:
		return p.buildGetPricesRequest(sym, params)
	case core.OpGetFinancialMetrics:
		return p.buildGetFinancialMetricsRequest(sym, params)
	default:
		return nil, core.NewProviderError(p.Name(), core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("unsupported operation: %s", op)).
			WithCode(core.ErrCodeUnsupported)
	}
}

func (p *Protocol) symbol(params core.Params) (ticker.Symbol, error) {
	raw, err := getRequiredStringParam(params, ParamTicker)
	if err != nil {
		return ticker.Symbol{}, err
	}

	sym, err := ticker.Parse(raw)
	if err != nil {
		var pe *core.ProviderError
		if errors.As(err, &pe) {
			pe.Provider = p.Name()
		}
		return ticker.Symbol{}, err
	}

	if !slices.Contains(p.markets, sym.Market) {
		return ticker.Symbol{}, fmt.Errorf("%w: %s (%s)", core.ErrUnsupportedMarket, sym.Ticker, sym.Market)
	}
	return sym, nil
}

func (p *Protocol) buildGetPricesRequest(sym ticker.Symbol, params core.Params) (*core.Request, error) {
	start, err := getRequiredDateParam(params, ParamStartDate)
	if err != nil {
		return nil, err
	}
	end, err := getRequiredDateParam(params, ParamEndDate)
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("end_date %s is before start_date %s", end, start)
	}

	interval := core.IntervalDay
	if v, ok := params[ParamInterval].(core.Interval); ok {
		interval = v
	}
	multiplier := getIntParamWithDefault(params, ParamIntervalMultiplier, 1)

	req := core.NewRequest(http.MethodGet, pricesPath)
	req.SetQuery("ticker", sym.Ticker)
	req.SetQuery("interval", interval.String())
	req.SetQuery("interval_multiplier", strconv.Itoa(multiplier))
	req.SetQuery("start_date", start)
	req.SetQuery("end_date", end)
	req.SetTicker(sym.Ticker, sym.Market)
	req.SetRequireAuth(true)
	req.SetCache(fmt.Sprintf("prices:%s:%s:%d:%s:%s", sym.Ticker, interval, multiplier, start, end), 0)

	return req, nil
}

func (p *Protocol) buildGetFinancialMetricsRequest(sym ticker.Symbol, params core.Params) (*core.Request, error) {
	end, err := getRequiredDateParam(params, ParamEndDate)
	if err != nil {
		return nil, err
	}

	period := core.PeriodTTM
	if v, ok := params[ParamPeriod].(core.ReportPeriod); ok {
		period = v
	}
	limit := getIntParamWithDefault(params, ParamLimit, defaultMetricsLimit)
	if limit < 1 {
		return nil, fmt.Errorf("parameter %s must be positive", ParamLimit)
	}

	req := core.NewRequest(http.MethodGet, metricsPath)
	req.SetQuery("ticker", sym.Ticker)
	req.SetQuery("report_period_lte", end)
	req.SetQuery("limit", strconv.Itoa(limit))
	req.SetQuery("period", period.String())
	req.SetTicker(sym.Ticker, sym.Market)
	req.SetRequireAuth(true)
	req.SetCache(fmt.Sprintf("financial_metrics:%s:%s:%s:%d", sym.Ticker, period, end, limit), 0)

	return req, nil
}

// ParseResponse maps error statuses to *core.ProviderError and decodes
// successful bodies into core types.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	requested := ""
	if resp.Request != nil {
		requested = resp.Request.QueryParams.Get("ticker")
	}

	if resp.StatusCode() >= 400 {
		return nil, p.statusError(resp, requested)
	}

	n := NewNormalizer()

	switch op {
	case core.OpGetPrices:
		var data pricesResponse
		if err := sonic.Unmarshal(resp.Bytes(), &data); err != nil {
			return nil, fmt.Errorf("unmarshal prices: %w", err)
		}
		if data.Ticker == "" {
			data.Ticker = requested
		}
		return n.NormalizePrices(data.Ticker, data.Prices)

	case core.OpGetFinancialMetrics:
		var data metricsResponse
		if err := sonic.Unmarshal(resp.Bytes(), &data); err != nil {
			return nil, fmt.Errorf("unmarshal financial metrics: %w", err)
		}
		return n.NormalizeFinancialMetrics(requested, data.FinancialMetrics)

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) statusError(resp *resty.Response, tickerName string) error {
	errType := core.ErrorTypeForStatus(resp.StatusCode())

	message := http.StatusText(resp.StatusCode())
	var apiErr apiError
	if err := sonic.Unmarshal(resp.Bytes(), &apiErr); err == nil {
		if m := apiErr.text(); m != "" {
			message = m
		}
	}

	pe := core.NewProviderError(p.Name(), errType, resp.StatusCode(), message)
	if code := core.CodeForType(errType); code != "" {
		pe.WithCode(code)
	}
	if tickerName != "" {
		pe.WithTicker(tickerName)
	}
	return pe
}

// SignRequest sets the API key header.
func (p *Protocol) SignRequest(req *resty.Request, apiKey string) error {
	if apiKey == "" {
		return core.ErrNoAPIKey
	}
	req.SetHeader(APIKeyHeader, apiKey)
	return nil
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	switch {
	case e.Error != "" && e.Message != "":
		return e.Error + ": " + e.Message
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}

	if strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}

	return str, nil
}

// getRequiredDateParam accepts a time.Time or a YYYY-MM-DD string and
// returns the date in YYYY-MM-DD form.
func getRequiredDateParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return "", fmt.Errorf("parameter %s cannot be zero", key)
		}
		return v.Format(dateLayout), nil
	case string:
		t, err := time.Parse(dateLayout, strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("parameter %s must be YYYY-MM-DD: %w", key, err)
		}
		return t.Format(dateLayout), nil
	default:
		return "", fmt.Errorf("parameter %s must be a date", key)
	}
}

func getIntParamWithDefault(params core.Params, key string, def int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return def
}

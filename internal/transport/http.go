// Package transport provides the HTTP client used to reach market-data providers.
package transport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tickr/pkg/core"
)

// DateLayout is the format used for time.Time query parameters.
const DateLayout = "2006-01-02"

// Client wraps a resty HTTP client with logging and configuration.
// It is safe for concurrent use.
type Client struct {
	client *resty.Client
	logger zerolog.Logger
	mu     sync.RWMutex
	closed bool
}

// Config holds connection settings for a Client.
type Config struct {
	BaseURL      string            `validate:"required,url"`
	Timeout      time.Duration     `validate:"min=1ms"`
	MaxRetries   int               `validate:"min=0"`
	RetryWaitMin time.Duration     `validate:"min=0"`
	RetryWaitMax time.Duration     `validate:"min=0"`
	Headers      map[string]string `validate:"omitempty"`
}

// RequestOption customizes a request before it is sent.
type RequestOption func(*resty.Request) error

var supportedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

// NewClient creates a client with the given configuration. JSON bodies are
// encoded and decoded with sonic.
func NewClient(config *Config, logger zerolog.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(config.BaseURL)
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(config.MaxRetries)
	client.SetRetryWaitTime(config.RetryWaitMin)
	client.SetRetryMaxWaitTime(config.RetryWaitMax)
	client.AddContentTypeEncoder("json", func(w io.Writer, v any) error {
		data, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	client.AddContentTypeDecoder("json", func(r io.Reader, v any) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return sonic.Unmarshal(data, v)
	})

	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return &Client{
		client: client,
		logger: logger,
	}, nil
}

// Do executes req and returns the raw response. Options run after headers
// and query parameters are applied, so they can sign the final request.
// Non-2xx responses are returned without error; callers map status codes.
func (c *Client) Do(ctx context.Context, req *core.Request, opts ...RequestOption) (*resty.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if !supportedMethods[req.Method] {
		return nil, fmt.Errorf("unsupported http method: %s", req.Method)
	}

	r := c.client.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(ParamsToStringMap(req.Query))
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("apply request option: %w", err)
		}
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("ticker", req.Ticker).
			Msg("http request failed")
		return nil, fmt.Errorf("http request: %w", err)
	}

	return resp, nil
}

// Get performs a GET request to path with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query core.Params, opts ...RequestOption) (*resty.Response, error) {
	req := core.NewRequest("GET", path)
	if query != nil {
		req.SetQueryParams(query)
	}
	return c.Do(ctx, req, opts...)
}

// Close releases idle connections. Further requests fail.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// ParamsToStringMap converts query parameters to strings. Times are
// formatted with DateLayout and fmt.Stringer values use String.
func ParamsToStringMap(params core.Params) map[string]string {
	result := make(map[string]string, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = strconv.Itoa(val)
		case int64:
			result[k] = strconv.FormatInt(val, 10)
		case float64:
			result[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(val)
		case time.Time:
			result[k] = val.Format(DateLayout)
		case fmt.Stringer:
			result[k] = val.String()
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

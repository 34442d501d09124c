package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a provider error.
type ErrorType int

// Error type constants categorize errors for proper handling and retry logic.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates an invalid or missing API key.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInvalidTicker indicates the ticker failed format validation.
	ErrorTypeInvalidTicker
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INVALID_TICKER",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrSessionClosed is returned when attempting to use a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrCircuitBreakerOpen is returned when circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	// ErrNoAPIKey is returned when no API key is available.
	ErrNoAPIKey = errors.New("no available API key")
	// ErrUnsupportedMarket is returned when no provider serves a ticker's market.
	ErrUnsupportedMarket = errors.New("unsupported market")
)

// ProviderError represents a structured error from a market-data provider
// or from request validation before the provider is contacted.
type ProviderError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero when no request was sent.
	StatusCode int `json:"status_code"`
	// Code is a stable ErrorCode value.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Provider identifies which provider the error relates to.
	Provider string `json:"provider"`
	// Ticker is the offending ticker, if any.
	Ticker string `json:"ticker,omitempty"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ProviderError.
func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Provider, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Provider, e.Type, e.StatusCode, e.Message)
}

// WithCode sets the error code and returns the error for chaining.
func (e *ProviderError) WithCode(code ErrorCode) *ProviderError {
	e.Code = string(code)
	return e
}

// WithTicker sets the offending ticker and returns the error for chaining.
func (e *ProviderError) WithTicker(ticker string) *ProviderError {
	e.Ticker = ticker
	return e
}

// NewProviderError creates a new ProviderError with the specified details.
// The timestamp is automatically set to the current time.
func NewProviderError(provider string, errorType ErrorType, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Provider:   provider,
		Timestamp:  time.Now(),
	}
}

// NewInvalidTickerError reports a ticker that failed format validation.
func NewInvalidTickerError(provider, ticker string) *ProviderError {
	return NewProviderError(provider, ErrorTypeInvalidTicker, 0,
		fmt.Sprintf("invalid ticker %q", ticker)).
		WithCode(ErrCodeInvalidSymbol).
		WithTicker(ticker)
}

// ErrorTypeForStatus maps an HTTP status code to an ErrorType.
func ErrorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuthentication
	case statusCode == 400:
		return ErrorTypeBadRequest
	case statusCode == 404:
		return ErrorTypeNotFound
	default:
		return ErrorTypeUnknown
	}
}

func errorType(err error) (ErrorType, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type, true
	}
	return ErrorTypeUnknown, false
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeNetwork
}

// IsRateLimitError returns true if the error is a rate limit violation.
// Rate limit errors should be retried after a delay.
func IsRateLimitError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeRateLimit
}

// IsAuthenticationError returns true if the provider rejected the API key.
func IsAuthenticationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeAuthentication
}

// IsInvalidTickerError returns true if the error came from ticker validation.
func IsInvalidTickerError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeInvalidTicker
}

// IsTerminalError returns true if retrying the same request cannot succeed.
func IsTerminalError(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	return t == ErrorTypeInvalidTicker ||
		t == ErrorTypeNotFound ||
		t == ErrorTypeBadRequest
}

package core

import "errors"

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

// Error code constants define standardized error identifiers.
const (
	ErrCodeNetwork     ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeRateLimit   ErrorCode = "RATE_LIMIT"
	ErrCodeAuth        ErrorCode = "AUTH_ERROR"
	ErrCodeBadRequest  ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeServerError ErrorCode = "SERVER_ERROR"
	// ErrCodeInvalidSymbol indicates the ticker is not in a recognized format.
	ErrCodeInvalidSymbol ErrorCode = "INVALID_SYMBOL"
	// ErrCodeUnsupportedMarket indicates no provider serves the ticker's market.
	ErrCodeUnsupportedMarket ErrorCode = "UNSUPPORTED_MARKET"

	ErrCodeInvalidConfig  ErrorCode = "INVALID_CONFIG"
	ErrCodeSessionClosed  ErrorCode = "SESSION_CLOSED"
	ErrCodeCircuitBreaker ErrorCode = "CIRCUIT_BREAKER_OPEN"
	ErrCodeNoAPIKey       ErrorCode = "NO_API_KEY"
	ErrCodeUnsupported    ErrorCode = "UNSUPPORTED_OPERATION"
)

// CodeForType returns the default ErrorCode for an ErrorType.
func CodeForType(t ErrorType) ErrorCode {
	switch t {
	case ErrorTypeNetwork:
		return ErrCodeNetwork
	case ErrorTypeTimeout:
		return ErrCodeTimeout
	case ErrorTypeRateLimit:
		return ErrCodeRateLimit
	case ErrorTypeAuthentication:
		return ErrCodeAuth
	case ErrorTypeBadRequest:
		return ErrCodeBadRequest
	case ErrorTypeNotFound:
		return ErrCodeNotFound
	case ErrorTypeServerError:
		return ErrCodeServerError
	case ErrorTypeInvalidTicker:
		return ErrCodeInvalidSymbol
	default:
		return ""
	}
}

// IsErrorCode checks if the error matches the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return ErrorCode(pe.Code) == code
	}
	return false
}

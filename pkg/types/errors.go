package types

import (
	"fmt"
	"net/http"
)

// ErrorCode categorizes enhancement request errors
type ErrorCode string

const (
	ErrCodeNotConfigured     ErrorCode = "not_configured"
	ErrCodeInvalidResponse   ErrorCode = "invalid_response"
	ErrCodeEnhancementFailed ErrorCode = "enhancement_failed"
	ErrCodeNetwork           ErrorCode = "network_error"
	ErrCodeServer            ErrorCode = "server_error"
	ErrCodeRateLimit         ErrorCode = "rate_limit_exceeded"
	ErrCodeAPIKeyInvalid     ErrorCode = "api_key_invalid"
	ErrCodeCustom            ErrorCode = "custom"
)

// EnhanceError represents a standardized error from a provider dispatcher
type EnhanceError struct {
	Code        ErrorCode    // Categorized error code
	Message     string       // Human-readable message
	StatusCode  int          // HTTP status code (0 if not applicable)
	Provider    ProviderType // Which provider generated this error
	Detail      string       // Raw response body for custom errors
	OriginalErr error        // Wrapped original error
}

// Error implements the error interface
func (e *EnhanceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *EnhanceError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns true if the error is potentially recoverable with retry
func (e *EnhanceError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeServer, ErrCodeNetwork:
		return true
	}
	return false
}

// Suggestion returns a recovery hint for user-facing surfaces, or an
// empty string when none applies.
func (e *EnhanceError) Suggestion() string {
	switch e.Code {
	case ErrCodeNotConfigured, ErrCodeAPIKeyInvalid:
		return "edit the provider configuration"
	case ErrCodeNetwork:
		return "check your network connection"
	case ErrCodeRateLimit, ErrCodeServer:
		return "wait a moment and retry"
	}
	return ""
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *EnhanceError) WithStatusCode(statusCode int) *EnhanceError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *EnhanceError) WithOriginalErr(err error) *EnhanceError {
	e.OriginalErr = err
	return e
}

// WithDetail sets the raw detail field and returns the error for chaining
func (e *EnhanceError) WithDetail(detail string) *EnhanceError {
	e.Detail = detail
	return e
}

// NewEnhanceError creates a new EnhanceError
func NewEnhanceError(provider ProviderType, code ErrorCode, message string) *EnhanceError {
	return &EnhanceError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewNotConfiguredError reports missing or empty authentication material
func NewNotConfiguredError(provider ProviderType) *EnhanceError {
	return &EnhanceError{
		Code:     ErrCodeNotConfigured,
		Message:  "provider is not configured",
		Provider: provider,
	}
}

// NewInvalidResponseError reports a malformed transport-level response
func NewInvalidResponseError(provider ProviderType, message string) *EnhanceError {
	return &EnhanceError{
		Code:     ErrCodeInvalidResponse,
		Message:  message,
		Provider: provider,
	}
}

// NewEnhancementFailedError reports a 200 response whose body could not be parsed
func NewEnhancementFailedError(provider ProviderType, message string) *EnhanceError {
	return &EnhanceError{
		Code:     ErrCodeEnhancementFailed,
		Message:  message,
		Provider: provider,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(provider ProviderType, message string) *EnhanceError {
	return &EnhanceError{
		Code:     ErrCodeNetwork,
		Message:  message,
		Provider: provider,
	}
}

// NewServerError creates a new server error
func NewServerError(provider ProviderType, statusCode int, message string) *EnhanceError {
	return &EnhanceError{
		Code:       ErrCodeServer,
		Message:    message,
		Provider:   provider,
		StatusCode: statusCode,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(provider ProviderType) *EnhanceError {
	return &EnhanceError{
		Code:       ErrCodeRateLimit,
		Message:    "rate limit exceeded",
		Provider:   provider,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewAPIKeyInvalidError creates a new invalid API key error
func NewAPIKeyInvalidError(provider ProviderType, statusCode int) *EnhanceError {
	return &EnhanceError{
		Code:       ErrCodeAPIKeyInvalid,
		Message:    "API key was rejected",
		Provider:   provider,
		StatusCode: statusCode,
	}
}

// NewCustomError creates an error for any other non-2xx response,
// preserving the raw body for diagnostics
func NewCustomError(provider ProviderType, statusCode int, body string) *EnhanceError {
	return &EnhanceError{
		Code:       ErrCodeCustom,
		Message:    fmt.Sprintf("unexpected response (status %d)", statusCode),
		Provider:   provider,
		StatusCode: statusCode,
		Detail:     body,
	}
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAPIKeyInvalid
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	default:
		if statusCode >= 500 {
			return ErrCodeServer
		}
		return ErrCodeCustom
	}
}

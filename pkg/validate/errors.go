// Package validate runs asynchronous configuration validation: a
// provider-appropriate probe raced against a timeout, with stale-result
// rejection and cancellation.
package validate

import (
	"fmt"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// Code categorizes validation failures.
type Code string

const (
	CodeTimeout             Code = "timeout"
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeRateLimited         Code = "rate_limited"
	CodeNetwork             Code = "network_error"
	CodeProviderUnavailable Code = "provider_unavailable"
	CodeUnknown             Code = "unknown"
)

// ValidationError describes why a configuration failed its probe.
type ValidationError struct {
	Code       Code
	Provider   types.ProviderType
	Message    string
	Detail     string        // raw response body for unknown errors
	RetryAfter time.Duration // hint from rate-limited responses, 0 when absent
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (code=%s)", e.Message, e.Code)
}

// Suggestion returns a recovery hint for user-facing surfaces, or an
// empty string when none applies.
func (e *ValidationError) Suggestion() string {
	switch e.Code {
	case CodeInvalidCredentials:
		return "edit the provider configuration"
	case CodeNetwork, CodeTimeout:
		return "check your network connection"
	case CodeRateLimited, CodeProviderUnavailable:
		return "wait a moment and retry"
	}
	return ""
}

func newTimeoutError(provider types.ProviderType, timeout time.Duration) *ValidationError {
	return &ValidationError{
		Code:     CodeTimeout,
		Provider: provider,
		Message:  fmt.Sprintf("validation did not finish within %v", timeout),
	}
}

func newInvalidCredentialsError(provider types.ProviderType, message string) *ValidationError {
	return &ValidationError{
		Code:     CodeInvalidCredentials,
		Provider: provider,
		Message:  message,
	}
}

func newRateLimitedError(provider types.ProviderType, retryAfter time.Duration) *ValidationError {
	return &ValidationError{
		Code:       CodeRateLimited,
		Provider:   provider,
		Message:    "provider is rate limiting requests",
		RetryAfter: retryAfter,
	}
}

func newNetworkError(provider types.ProviderType, detail string) *ValidationError {
	return &ValidationError{
		Code:     CodeNetwork,
		Provider: provider,
		Message:  "could not reach the provider",
		Detail:   detail,
	}
}

func newProviderUnavailableError(provider types.ProviderType, statusCode int) *ValidationError {
	return &ValidationError{
		Code:     CodeProviderUnavailable,
		Provider: provider,
		Message:  fmt.Sprintf("provider is unavailable (status %d)", statusCode),
	}
}

func newUnknownError(provider types.ProviderType, statusCode int, body string) *ValidationError {
	return &ValidationError{
		Code:     CodeUnknown,
		Provider: provider,
		Message:  fmt.Sprintf("unexpected response (status %d)", statusCode),
		Detail:   body,
	}
}

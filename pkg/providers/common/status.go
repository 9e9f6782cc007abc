package common

import (
	"net/http"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// MaxBodyBytes bounds how much of a provider response is read into memory.
const MaxBodyBytes = 4 << 20

// MapStatusError converts a non-2xx provider response into the shared
// error taxonomy: 429 to rate limiting, 401/403 to a rejected key, 5xx
// to a server error, anything else to a custom error carrying the raw
// body.
func MapStatusError(provider types.ProviderType, statusCode int, body []byte) *types.EnhanceError {
	switch types.ClassifyHTTPError(statusCode) {
	case types.ErrCodeAPIKeyInvalid:
		return types.NewAPIKeyInvalidError(provider, statusCode)
	case types.ErrCodeRateLimit:
		return types.NewRateLimitError(provider)
	case types.ErrCodeServer:
		return types.NewServerError(provider, statusCode, http.StatusText(statusCode))
	default:
		return types.NewCustomError(provider, statusCode, string(body))
	}
}

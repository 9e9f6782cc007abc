// Package httputil provides small HTTP helpers shared by the provider
// dispatchers and validation probes.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AnthropicVersion is the fixed API version header sent on every
// Anthropic request.
const AnthropicVersion = "2023-06-01"

// NewJSONRequest creates a JSON HTTP request with proper headers
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AuthHeaders creates authentication headers for different methods
func AuthHeaders(method, token string) map[string]string {
	switch method {
	case "bearer":
		return map[string]string{
			"Authorization": "Bearer " + token,
		}
	case "anthropic":
		return map[string]string{
			"x-api-key":         token,
			"anthropic-version": AnthropicVersion,
		}
	default:
		return map[string]string{
			"Authorization": token,
		}
	}
}

// ReadBody drains and closes a response body, returning at most limit bytes
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Package anthropic dispatches enhancement requests to the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/common"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	// DefaultBaseURL is the Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	messagesPath     = "/messages"
	defaultMaxTokens = 8192
	defaultTimeout   = 30 * time.Second
)

// messagesRequest is the request body for the Messages API.
type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []messageParam `json:"messages"`
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the subset of the Messages API response we read.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Config holds the optional settings for the dispatcher.
type Config struct {
	// MaxTokens caps the response length. Defaults to 8192.
	MaxTokens int
	// BaseURL overrides the Anthropic API root.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Logger overrides the default logger.
	Logger *log.Logger
}

// Dispatcher sends enhancement requests to the Anthropic Messages API.
type Dispatcher struct {
	maxTokens int
	baseURL   string
	client    *http.Client
	logger    *log.Logger
}

// NewDispatcher creates a Messages API dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Dispatcher{
		maxTokens: cfg.MaxTokens,
		baseURL:   cfg.BaseURL,
		client:    cfg.HTTPClient,
		logger:    cfg.Logger,
	}
}

// PerformRequest sends one system+user message pair to the Messages API
// and returns the sanitized model output.
func (d *Dispatcher) PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	if session == nil {
		return "", types.NewNotConfiguredError(types.ProviderTypeAnthropic)
	}

	var key string
	switch auth := session.Auth.(type) {
	case types.AnthropicKey:
		key = auth.Key
	default:
		return "", types.NewEnhanceError(types.ProviderTypeAnthropic, types.ErrCodeNotConfigured,
			"provider requires an x-api-key credential")
	}
	if key == "" {
		return "", types.NewNotConfiguredError(types.ProviderTypeAnthropic)
	}

	payload := messagesRequest{
		Model:     session.Model,
		MaxTokens: d.maxTokens,
		System:    system,
		Messages:  []messageParam{{Role: "user", Content: user}},
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, d.baseURL+messagesPath, payload)
	if err != nil {
		return "", types.NewInvalidResponseError(types.ProviderTypeAnthropic, err.Error()).WithOriginalErr(err)
	}
	for k, v := range httputil.AuthHeaders("anthropic", key) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return "", types.NewNetworkError(types.ProviderTypeAnthropic, err.Error()).WithOriginalErr(err)
	}

	body, err := httputil.ReadBody(resp, common.MaxBodyBytes)
	if err != nil {
		return "", types.NewInvalidResponseError(types.ProviderTypeAnthropic, err.Error()).WithOriginalErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.Printf("[anthropic] request failed: HTTP %d", resp.StatusCode)
		return "", common.MapStatusError(types.ProviderTypeAnthropic, resp.StatusCode, body)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", types.NewEnhancementFailedError(types.ProviderTypeAnthropic, fmt.Sprintf("unparsable response: %v", err))
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", types.NewEnhancementFailedError(types.ProviderTypeAnthropic, "response contained no text content")
	}

	d.logger.Printf("[anthropic] request completed in %v", time.Since(start))
	return common.Sanitize(parsed.Content[0].Text), nil
}

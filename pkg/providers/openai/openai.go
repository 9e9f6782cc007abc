// Package openai dispatches enhancement requests to OpenAI-compatible
// chat-completions APIs (OpenAI, Groq, Cerebras, OpenRouter).
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/common"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	defaultTemperature  = 0.3
	defaultTimeout      = 30 * time.Second
	chatCompletionsPath = "/chat/completions"
)

// baseURLs maps each OpenAI-compatible provider to its API root.
var baseURLs = map[types.ProviderType]string{
	types.ProviderTypeOpenAI:     "https://api.openai.com/v1",
	types.ProviderTypeGroq:       "https://api.groq.com/openai/v1",
	types.ProviderTypeCerebras:   "https://api.cerebras.ai/v1",
	types.ProviderTypeOpenRouter: "https://openrouter.ai/api/v1",
}

// BaseURLFor returns the chat-completions API root for an
// OpenAI-compatible provider, or "" if the provider is not one.
func BaseURLFor(provider types.ProviderType) string {
	return baseURLs[provider]
}

// chatRequest is the request body for the chat completions endpoint.
type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	Stream          bool          `json:"stream"`
	Temperature     *float64      `json:"temperature,omitempty"`
	ReasoningEffort string        `json:"reasoning_effort,omitempty"`
}

// chatMessage is a single message in the chat completions format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Config holds the optional settings for the dispatcher.
type Config struct {
	// Temperature used for models that accept one. Defaults to 0.3.
	Temperature float64
	// BaseURL overrides the per-provider API root.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Logger overrides the default logger.
	Logger *log.Logger
}

// Dispatcher sends enhancement requests to OpenAI-compatible providers.
type Dispatcher struct {
	temperature float64
	baseURL     string
	client      *http.Client
	logger      *log.Logger
}

// NewDispatcher creates a chat-completions dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Dispatcher{
		temperature: cfg.Temperature,
		baseURL:     cfg.BaseURL,
		client:      cfg.HTTPClient,
		logger:      cfg.Logger,
	}
}

// PerformRequest sends one system+user message pair to the session's
// provider and returns the sanitized model output.
func (d *Dispatcher) PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	if session == nil {
		return "", types.NewNotConfiguredError(types.ProviderTypeOpenAI)
	}

	var token string
	switch auth := session.Auth.(type) {
	case types.BearerToken:
		token = auth.Token
	default:
		return "", types.NewEnhanceError(session.Provider, types.ErrCodeNotConfigured,
			"provider requires a bearer token")
	}
	if token == "" {
		return "", types.NewNotConfiguredError(session.Provider)
	}

	baseURL := d.baseURL
	if baseURL == "" {
		baseURL = BaseURLFor(session.Provider)
	}
	if baseURL == "" {
		return "", types.NewEnhanceError(session.Provider, types.ErrCodeNotConfigured,
			"provider has no chat completions endpoint")
	}

	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	payload := chatRequest{
		Model:           session.Model,
		Messages:        messages,
		Stream:          false,
		ReasoningEffort: reasoningEffortFor(session.Model),
	}
	if supportsTemperature(session.Model) {
		temp := d.temperature
		payload.Temperature = &temp
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, baseURL+chatCompletionsPath, payload)
	if err != nil {
		return "", types.NewInvalidResponseError(session.Provider, err.Error()).WithOriginalErr(err)
	}
	for k, v := range httputil.AuthHeaders("bearer", token) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return "", types.NewNetworkError(session.Provider, err.Error()).WithOriginalErr(err)
	}

	body, err := httputil.ReadBody(resp, common.MaxBodyBytes)
	if err != nil {
		return "", types.NewInvalidResponseError(session.Provider, err.Error()).WithOriginalErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.Printf("[openai] %s request failed: HTTP %d", session.Provider, resp.StatusCode)
		return "", common.MapStatusError(session.Provider, resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", types.NewEnhancementFailedError(session.Provider, fmt.Sprintf("unparsable response: %v", err))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", types.NewEnhancementFailedError(session.Provider, "response contained no choices")
	}

	d.logger.Printf("[openai] %s request completed in %v", session.Provider, time.Since(start))
	return common.Sanitize(parsed.Choices[0].Message.Content), nil
}

// modelFamily strips a router namespace prefix ("openai/gpt-5-mini")
// and lower-cases the remainder for family matching.
func modelFamily(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return strings.ToLower(model)
}

// reasoningModelPrefixes are model families that reject an explicit
// temperature parameter.
var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func supportsTemperature(model string) bool {
	family := modelFamily(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(family, prefix) {
			return false
		}
	}
	return true
}

// minimalEffortModels receive reasoning_effort "minimal" so short
// dictation passes are not spent on extended reasoning.
var minimalEffortModels = map[string]bool{
	"gpt-5":      true,
	"gpt-5-mini": true,
	"gpt-5-nano": true,
}

func reasoningEffortFor(model string) string {
	if minimalEffortModels[modelFamily(model)] {
		return "minimal"
	}
	return ""
}

// Package bedrock implements the AWS Bedrock dispatcher: Converse-API
// request building, SigV4 signing and response parsing across the
// Bedrock model families.
package bedrock

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/common"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	// RuntimeServiceName is the SigV4 service name for the Bedrock
	// runtime (Converse) API.
	RuntimeServiceName = "bedrock-runtime"
	// ControlServiceName is the SigV4 service name for the Bedrock
	// control plane.
	ControlServiceName = "bedrock"

	defaultMaxTokens   = 8192
	defaultTemperature = 0.3
	defaultTimeout     = 30 * time.Second
)

// RuntimeEndpoint returns the regional Bedrock runtime host
func RuntimeEndpoint(region string) string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
}

// ControlEndpoint returns the regional Bedrock control-plane host
func ControlEndpoint(region string) string {
	return fmt.Sprintf("https://bedrock.%s.amazonaws.com", region)
}

// converseRequest is the Bedrock Converse API request shape
type converseRequest struct {
	Messages        []converseMessage `json:"messages"`
	InferenceConfig inferenceConfig   `json:"inferenceConfig"`
}

type converseMessage struct {
	Role    string            `json:"role"`
	Content []converseContent `json:"content"`
}

type converseContent struct {
	Text string `json:"text"`
}

type inferenceConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// Config configures the Bedrock dispatcher
type Config struct {
	MaxTokens   int
	Temperature float64
	Endpoint    string // overrides the regional runtime endpoint
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Dispatcher sends enhancement requests to the Bedrock Converse API
type Dispatcher struct {
	maxTokens   int
	temperature float64
	endpoint    string
	client      *http.Client
	signer      *Signer
	logger      *log.Logger
}

// NewDispatcher creates a Bedrock dispatcher with defaults filled in
func NewDispatcher(config Config) *Dispatcher {
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = defaultTemperature
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Dispatcher{
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		endpoint:    config.Endpoint,
		client:      config.HTTPClient,
		signer:      NewSigner(),
		logger:      config.Logger,
	}
}

// PerformRequest sends one enhancement request and returns the model output
func (d *Dispatcher) PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	if session == nil {
		return "", types.NewNotConfiguredError(types.ProviderTypeBedrock)
	}

	var (
		creds  types.AWSCredentials
		bearer string
		region string
	)
	switch auth := session.Auth.(type) {
	case types.BedrockSigV4:
		creds = auth.Credentials
		region = auth.Region
	case types.BedrockBearer:
		bearer = auth.Token
		region = auth.Region
	case types.BearerToken, types.AnthropicKey:
		return "", types.NewEnhanceError(types.ProviderTypeBedrock, types.ErrCodeNotConfigured,
			"session does not carry Bedrock auth")
	default:
		return "", types.NewNotConfiguredError(types.ProviderTypeBedrock)
	}

	if region == "" {
		region = session.Region
	}
	if region == "" {
		return "", types.NewEnhanceError(types.ProviderTypeBedrock, types.ErrCodeNotConfigured,
			"AWS region is not set")
	}
	if bearer == "" && !creds.HasKeyPair() {
		return "", types.NewNotConfiguredError(types.ProviderTypeBedrock)
	}

	// The Converse API takes a single user turn, so the system prompt is
	// folded into it
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}

	payload := converseRequest{
		Messages: []converseMessage{
			{Role: "user", Content: []converseContent{{Text: prompt}}},
		},
		InferenceConfig: inferenceConfig{
			MaxTokens:   d.maxTokens,
			Temperature: d.temperature,
		},
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := d.endpoint
	if endpoint == "" {
		endpoint = RuntimeEndpoint(region)
	}
	url := fmt.Sprintf("%s/model/%s/converse", endpoint, session.Model)
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", types.NewInvalidResponseError(types.ProviderTypeBedrock, err.Error()).WithOriginalErr(err)
	}

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		signed, err := d.signer.SignRequest(req, creds, region, RuntimeServiceName)
		if err != nil {
			return "", err
		}
		req = signed
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return "", types.NewNetworkError(types.ProviderTypeBedrock, err.Error()).WithOriginalErr(err)
	}

	body, err := httputil.ReadBody(resp, common.MaxBodyBytes)
	if err != nil {
		return "", types.NewInvalidResponseError(types.ProviderTypeBedrock, err.Error()).WithOriginalErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.Printf("[bedrock] request to model %s failed with status %d", session.Model, resp.StatusCode)
		return "", common.MapStatusError(types.ProviderTypeBedrock, resp.StatusCode, body)
	}

	text, ok := extractConverseText(body)
	if !ok {
		return "", types.NewEnhancementFailedError(types.ProviderTypeBedrock, "no text in Converse response")
	}

	d.logger.Printf("[bedrock] model %s responded in %s", session.Model, time.Since(start).Round(time.Millisecond))
	return common.Sanitize(text), nil
}

// converseFallbackPaths are alternate top-level response shapes seen
// across Bedrock model families.
var converseFallbackPaths = []string{
	"output_text",
	"outputText",
	"completion",
	"generated_text",
	"outputs.0.text",
}

// extractConverseText pulls the model output out of a Converse response,
// trying the standard shape first and then the per-family alternates
func extractConverseText(body []byte) (string, bool) {
	content := gjson.GetBytes(body, "output.message.content")
	if content.IsArray() {
		var text string
		content.ForEach(func(_, block gjson.Result) bool {
			if t := block.Get("text"); t.Exists() && t.String() != "" {
				text = t.String()
				return false
			}
			return true
		})
		if text != "" {
			return text, true
		}

		// Reasoning-only responses keep their text one level deeper
		content.ForEach(func(_, block gjson.Result) bool {
			if t := block.Get("reasoningContent.reasoningText.text"); t.Exists() && t.String() != "" {
				text = t.String()
				return false
			}
			return true
		})
		if text != "" {
			return text, true
		}
	}

	for _, path := range converseFallbackPaths {
		if r := gjson.GetBytes(body, path); r.Exists() && r.String() != "" {
			return r.String(), true
		}
	}

	return "", false
}

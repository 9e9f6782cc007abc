package validate

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/anthropic"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/bedrock"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/common"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/openai"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// probe runs the lightweight "does this work" check appropriate for
// the session's provider. A nil return means the probe passed.
func (v *Validator) probe(ctx context.Context, active *types.ActiveSession) *ValidationError {
	switch {
	case active.Provider.IsOpenAICompatible():
		return v.probeChatCompletions(ctx, active)
	case active.Provider == types.ProviderTypeAnthropic:
		return v.probeAnthropic(ctx, active)
	case active.Provider == types.ProviderTypeBedrock:
		return v.probeBedrock(ctx, active)
	}
	return newUnknownError(active.Provider, 0, "unsupported provider")
}

func (v *Validator) probeChatCompletions(ctx context.Context, active *types.ActiveSession) *ValidationError {
	auth, ok := active.Auth.(types.BearerToken)
	if !ok || auth.Token == "" {
		return newInvalidCredentialsError(active.Provider, "configuration has no API key")
	}

	base := v.chatBase
	if base == "" {
		base = openai.BaseURLFor(active.Provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models", nil)
	if err != nil {
		return newNetworkError(active.Provider, err.Error())
	}
	for k, value := range httputil.AuthHeaders("bearer", auth.Token) {
		req.Header.Set(k, value)
	}
	return v.doProbe(req, active.Provider)
}

func (v *Validator) probeAnthropic(ctx context.Context, active *types.ActiveSession) *ValidationError {
	auth, ok := active.Auth.(types.AnthropicKey)
	if !ok || auth.Key == "" {
		return newInvalidCredentialsError(active.Provider, "configuration has no API key")
	}

	base := v.anthropicBase
	if base == "" {
		base = anthropic.DefaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models?limit=1", nil)
	if err != nil {
		return newNetworkError(active.Provider, err.Error())
	}
	for k, value := range httputil.AuthHeaders("anthropic", auth.Key) {
		req.Header.Set(k, value)
	}
	return v.doProbe(req, active.Provider)
}

func (v *Validator) probeBedrock(ctx context.Context, active *types.ActiveSession) *ValidationError {
	region := active.Region
	endpoint := v.bedrockBase
	if endpoint == "" {
		endpoint = bedrock.ControlEndpoint(region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/foundation-models", nil)
	if err != nil {
		return newNetworkError(active.Provider, err.Error())
	}

	switch auth := active.Auth.(type) {
	case types.BedrockBearer:
		if auth.Token == "" {
			return newInvalidCredentialsError(active.Provider, "configuration has no Bedrock token")
		}
		for k, value := range httputil.AuthHeaders("bearer", auth.Token) {
			req.Header.Set(k, value)
		}
	case types.BedrockSigV4:
		if !auth.Credentials.HasKeyPair() {
			return newInvalidCredentialsError(active.Provider, "configuration has no AWS key pair")
		}
		signed, err := v.signer.SignRequest(req, auth.Credentials, region, bedrock.ControlServiceName)
		if err != nil {
			return newUnknownError(active.Provider, 0, err.Error())
		}
		req = signed
	default:
		return newInvalidCredentialsError(active.Provider, "configuration has no Bedrock credentials")
	}
	return v.doProbe(req, active.Provider)
}

func (v *Validator) doProbe(req *http.Request, provider types.ProviderType) *ValidationError {
	resp, err := v.client.Do(req)
	if err != nil {
		return newNetworkError(provider, err.Error())
	}

	body, err := httputil.ReadBody(resp, common.MaxBodyBytes)
	if err != nil {
		return newNetworkError(provider, err.Error())
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return newInvalidCredentialsError(provider, "provider rejected the credentials")
	case resp.StatusCode == http.StatusTooManyRequests:
		return newRateLimitedError(provider, retryAfter(resp))
	case resp.StatusCode >= 500:
		return newProviderUnavailableError(provider, resp.StatusCode)
	default:
		return newUnknownError(provider, resp.StatusCode, string(body))
	}
}

// retryAfter reads a seconds-valued Retry-After header, 0 when absent
// or unparsable.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

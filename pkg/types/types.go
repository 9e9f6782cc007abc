package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeGroq       ProviderType = "groq"
	ProviderTypeCerebras   ProviderType = "cerebras"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeAnthropic  ProviderType = "anthropic"
	ProviderTypeBedrock    ProviderType = "bedrock"
)

// IsOpenAICompatible reports whether the provider speaks the OpenAI
// chat-completions dialect and authenticates with a bearer token.
func (p ProviderType) IsOpenAICompatible() bool {
	switch p {
	case ProviderTypeOpenAI, ProviderTypeGroq, ProviderTypeCerebras, ProviderTypeOpenRouter:
		return true
	}
	return false
}

// ParseProviderType converts a configuration string into a ProviderType
func ParseProviderType(s string) (ProviderType, error) {
	switch p := ProviderType(s); p {
	case ProviderTypeOpenAI, ProviderTypeGroq, ProviderTypeCerebras,
		ProviderTypeOpenRouter, ProviderTypeAnthropic, ProviderTypeBedrock:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider type %q", s)
}

// AWSCredentials holds resolved AWS key material for one session.
// Values are never persisted and live only as long as the ActiveSession
// that carries them.
type AWSCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // present for temporary/SSO credentials
	Region          string
}

// HasKeyPair reports whether both halves of the static key pair are present
func (c AWSCredentials) HasKeyPair() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// String redacts key material so credential values can appear in %v output
// without leaking secrets.
func (c AWSCredentials) String() string {
	return fmt.Sprintf("AWSCredentials{AccessKeyID:%s, Region:%s}", redactKey(c.AccessKeyID), c.Region)
}

func redactKey(k string) string {
	if len(k) <= 4 {
		return "****"
	}
	return k[:4] + "****"
}

// Auth identifies how requests on a session are authenticated. It is a
// closed set: every dispatcher switches exhaustively over the four
// variants below.
type Auth interface {
	authVariant()
}

// BearerToken authenticates OpenAI-compatible providers via an
// Authorization: Bearer header.
type BearerToken struct {
	Token string
}

// AnthropicKey authenticates the Anthropic API via the x-api-key header.
type AnthropicKey struct {
	Key string
}

// BedrockSigV4 authenticates Bedrock with SigV4 request signing.
type BedrockSigV4 struct {
	Credentials AWSCredentials
	Region      string
}

// BedrockBearer authenticates Bedrock with a bearer token instead of
// request signing.
type BedrockBearer struct {
	Token  string
	Region string
}

func (BearerToken) authVariant()   {}
func (AnthropicKey) authVariant()  {}
func (BedrockSigV4) authVariant()  {}
func (BedrockBearer) authVariant() {}

// ActiveSession is the immutable bundle of provider, model, region and
// auth material used for one family of enhancement requests. Sessions are
// replaced wholesale by the switch coordinator, never mutated in place.
type ActiveSession struct {
	Provider ProviderType
	Model    string
	Region   string // AWS only
	Auth     Auth
}

// SwitchToken is an opaque identifier minted each time a session switch
// begins. A pending asynchronous session build may only commit its result
// while the token it captured still equals the coordinator's live token.
type SwitchToken string

// NewSwitchToken mints a unique switch token
func NewSwitchToken() SwitchToken {
	return SwitchToken(uuid.NewString())
}

// ValidationContext identifies one validation run. A result is applied
// only if the stored context for the config still matches the context
// captured when validation started.
type ValidationContext struct {
	ConfigID  string
	Signature string
	Token     SwitchToken
}

// Matches reports whether two contexts refer to the same validation run
// against the same configuration shape.
func (v ValidationContext) Matches(other ValidationContext) bool {
	return v.ConfigID == other.ConfigID && v.Signature == other.Signature && v.Token == other.Token
}

// Package session builds immutable active sessions from configuration
// and coordinates race-safe session switches.
package session

import (
	"context"
	"log"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/awscreds"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// Config is the subset of the application configuration the builder
// reads. Secret accessors abstract away where keys are actually stored.
type Config interface {
	Provider() types.ProviderType
	Model() string
	Region() string
	AWSProfileName() string
	AWSAccessKeyID() string
	AWSSecretAccessKey() string
	// APIKey returns the configuration-level key or bearer token.
	APIKey() string
	// FallbackKey returns the provider-level fallback key.
	FallbackKey() string
}

// CredentialResolver resolves AWS credentials for a named profile.
type CredentialResolver interface {
	Resolve(ctx context.Context, profile string) (types.AWSCredentials, error)
}

// BuilderConfig holds the optional settings for a Builder.
type BuilderConfig struct {
	// Resolver overrides the default AWS credential resolver.
	Resolver CredentialResolver
	// Logger overrides the default logger.
	Logger *log.Logger
}

// Builder turns a configuration into an ActiveSession. The AWS-profile
// branch performs I/O through the credential resolver; every other
// branch is a pure transformation.
type Builder struct {
	resolver CredentialResolver
	logger   *log.Logger
}

// NewBuilder creates a session builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.Resolver == nil {
		cfg.Resolver = awscreds.NewResolver(awscreds.ResolverConfig{})
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Builder{
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// Build constructs a session for the configuration, or (nil, nil) when
// the configuration lacks the material to authenticate. Errors are
// returned only from credential resolution.
func (b *Builder) Build(ctx context.Context, cfg Config) (*types.ActiveSession, error) {
	if cfg == nil {
		return nil, nil
	}

	provider := cfg.Provider()
	switch {
	case provider == types.ProviderTypeBedrock:
		return b.buildBedrock(ctx, cfg)
	case provider == types.ProviderTypeAnthropic:
		key := firstNonEmpty(cfg.APIKey(), cfg.FallbackKey())
		if key == "" {
			return nil, nil
		}
		return &types.ActiveSession{
			Provider: provider,
			Model:    cfg.Model(),
			Auth:     types.AnthropicKey{Key: key},
		}, nil
	case provider.IsOpenAICompatible():
		key := firstNonEmpty(cfg.APIKey(), cfg.FallbackKey())
		if key == "" {
			return nil, nil
		}
		return &types.ActiveSession{
			Provider: provider,
			Model:    cfg.Model(),
			Auth:     types.BearerToken{Token: key},
		}, nil
	}
	return nil, nil
}

func (b *Builder) buildBedrock(ctx context.Context, cfg Config) (*types.ActiveSession, error) {
	region := cfg.Region()

	if profile := cfg.AWSProfileName(); profile != "" {
		creds, err := b.resolver.Resolve(ctx, profile)
		if err != nil {
			return nil, err
		}
		if creds.Region != "" {
			region = creds.Region
		}
		b.logger.Printf("[session] resolved AWS profile %q for Bedrock", profile)
		return &types.ActiveSession{
			Provider: types.ProviderTypeBedrock,
			Model:    cfg.Model(),
			Region:   region,
			Auth:     types.BedrockSigV4{Credentials: creds, Region: region},
		}, nil
	}

	if id, secret := cfg.AWSAccessKeyID(), cfg.AWSSecretAccessKey(); id != "" && secret != "" {
		creds := types.AWSCredentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			Region:          region,
		}
		return &types.ActiveSession{
			Provider: types.ProviderTypeBedrock,
			Model:    cfg.Model(),
			Region:   region,
			Auth:     types.BedrockSigV4{Credentials: creds, Region: region},
		}, nil
	}

	if token := firstNonEmpty(cfg.APIKey(), cfg.FallbackKey()); token != "" {
		return &types.ActiveSession{
			Provider: types.ProviderTypeBedrock,
			Model:    cfg.Model(),
			Region:   region,
			Auth:     types.BedrockBearer{Token: token, Region: region},
		}, nil
	}

	return nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

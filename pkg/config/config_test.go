package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/enhance"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/validate"
)

func TestConfig_SatisfiesConsumers(t *testing.T) {
	var _ session.Config = (*Config)(nil)
	var _ validate.Config = (*Config)(nil)
	var _ enhance.PromptSource = (*Config)(nil)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
id: work-bedrock
provider: Bedrock
model: anthropic.claude-3-5-sonnet-20241022-v2:0
region: us-west-2
aws_profile: dev
api_keys:
  openai: sk-openai
  bedrock: bedrock-token
enhancement:
  timeout: 45s
  max_retries: 1
  rate_limit_interval: 500ms
  temperature: 0.7
validation:
  timeout: 10s
prompts:
  - name: default
    system: Clean up the transcript.
  - name: email
    system: Rewrite as a polite email.
active_prompt: email
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, types.ProviderTypeBedrock, cfg.Provider())
	assert.Equal(t, "anthropic.claude-3-5-sonnet-20241022-v2:0", cfg.Model())
	assert.Equal(t, "us-west-2", cfg.Region())
	assert.Equal(t, "dev", cfg.AWSProfileName())
	assert.Equal(t, "work-bedrock", cfg.ID())

	assert.Equal(t, "bedrock-token", cfg.APIKey(), "key lookup follows the active provider")
	assert.Equal(t, 45*time.Second, cfg.EnhanceTimeout())
	assert.Equal(t, 1, cfg.MaxRetries())
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimitInterval())
	assert.Equal(t, 0.7, cfg.Temperature())
	assert.Equal(t, 10*time.Second, cfg.ValidationTimeout())

	name, system := cfg.ActivePrompt()
	assert.Equal(t, "email", name)
	assert.Equal(t, "Rewrite as a polite email.", system)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "provider: openai\nmodel: gpt-4o\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultEnhanceTimeout, cfg.EnhanceTimeout())
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries())
	assert.Equal(t, DefaultRateLimitInterval, cfg.RateLimitInterval())
	assert.Equal(t, DefaultTemperature, cfg.Temperature())
	assert.Equal(t, DefaultValidationTimeout, cfg.ValidationTimeout())
	assert.Equal(t, "openai/gpt-4o", cfg.ID())

	name, system := cfg.ActivePrompt()
	assert.Empty(t, name)
	assert.Empty(t, system)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{"unparsable yaml", "provider: [unterminated", "failed to parse"},
		{"missing provider", "model: gpt-4o\n", "provider is required"},
		{"missing model", "provider: openai\n", "model is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})
}

func TestConfig_FallbackKey(t *testing.T) {
	cfg := New(File{Provider: "groq", Model: "llama-3.3-70b-versatile"})
	cfg.SetEnvLookup(func(name string) string {
		if name == "HOAH_GROQ_API_KEY" {
			return "gsk-env"
		}
		return ""
	})

	assert.Empty(t, cfg.APIKey())
	assert.Equal(t, "gsk-env", cfg.FallbackKey())
}

func TestConfig_InvalidDurationFallsBack(t *testing.T) {
	cfg := New(File{
		Provider:    "openai",
		Model:       "gpt-4o",
		Enhancement: Enhancement{Timeout: "soon", RateLimitInterval: "-2s"},
	})

	assert.Equal(t, DefaultEnhanceTimeout, cfg.EnhanceTimeout())
	assert.Equal(t, DefaultRateLimitInterval, cfg.RateLimitInterval())
}

func TestConfig_ExplicitZeroRetries(t *testing.T) {
	zero := 0
	cfg := New(File{
		Provider:    "openai",
		Model:       "gpt-4o",
		Enhancement: Enhancement{MaxRetries: &zero},
	})

	assert.Zero(t, cfg.MaxRetries())
}

func TestConfig_Signature(t *testing.T) {
	base := File{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKeys:  map[string]string{"openai": "sk-one"},
	}

	first := New(base).Signature()

	rotated := base
	rotated.APIKeys = map[string]string{"openai": "sk-two"}
	assert.Equal(t, first, New(rotated).Signature(),
		"rotating a key keeps the structural signature stable")

	removed := base
	removed.APIKeys = nil
	assert.NotEqual(t, first, New(removed).Signature())

	remodeled := base
	remodeled.Model = "gpt-4o-mini"
	assert.NotEqual(t, first, New(remodeled).Signature())

	assert.NotContains(t, first, "sk-one", "signatures never embed key material")
}

func TestConfig_ActivePromptFallsBackToFirst(t *testing.T) {
	cfg := New(File{
		Provider: "openai",
		Model:    "gpt-4o",
		Prompts: []Prompt{
			{Name: "default", System: "Clean up the transcript."},
			{Name: "email", System: "Rewrite as an email."},
		},
		ActivePrompt: "missing",
	})

	name, system := cfg.ActivePrompt()
	assert.Equal(t, "default", name)
	assert.Equal(t, "Clean up the transcript.", system)
}

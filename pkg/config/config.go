// Package config loads the application configuration file and exposes
// it through the accessors the session builder, validator, and
// enhancer consume.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	// DefaultEnhanceTimeout bounds one enhancement request.
	DefaultEnhanceTimeout = 30 * time.Second
	// DefaultMaxRetries is the retry budget beyond the first attempt.
	DefaultMaxRetries = 3
	// DefaultRateLimitInterval is the minimum spacing between attempts.
	DefaultRateLimitInterval = time.Second
	// DefaultValidationTimeout bounds one configuration validation.
	DefaultValidationTimeout = 5 * time.Second
	// DefaultTemperature is the sampling temperature for providers
	// that accept one.
	DefaultTemperature = 0.3
)

// File is the on-disk configuration schema.
type File struct {
	ID                 string            `yaml:"id,omitempty"`
	Provider           string            `yaml:"provider"`
	Model              string            `yaml:"model"`
	Region             string            `yaml:"region,omitempty"`
	AWSProfile         string            `yaml:"aws_profile,omitempty"`
	AWSAccessKeyID     string            `yaml:"aws_access_key_id,omitempty"`
	AWSSecretAccessKey string            `yaml:"aws_secret_access_key,omitempty"`
	APIKeys            map[string]string `yaml:"api_keys,omitempty"`
	Enhancement        Enhancement       `yaml:"enhancement,omitempty"`
	Validation         Validation        `yaml:"validation,omitempty"`
	Prompts            []Prompt          `yaml:"prompts,omitempty"`
	ActivePrompt       string            `yaml:"active_prompt,omitempty"`
}

// Enhancement tunes the request pipeline. Durations are
// time.ParseDuration strings ("30s", "500ms").
type Enhancement struct {
	Timeout           string  `yaml:"timeout,omitempty"`
	MaxRetries        *int    `yaml:"max_retries,omitempty"`
	RateLimitInterval string  `yaml:"rate_limit_interval,omitempty"`
	Temperature       float64 `yaml:"temperature,omitempty"`
}

// Validation tunes configuration validation.
type Validation struct {
	Timeout string `yaml:"timeout,omitempty"`
}

// Prompt is one named system-prompt preset.
type Prompt struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
}

// Config wraps a parsed configuration file. Accessors resolve
// defaults, key lookups, and the active prompt so callers never touch
// the raw schema.
type Config struct {
	file   File
	lookup func(string) string
}

// New wraps an in-memory configuration. Fallback keys are read from
// the process environment.
func New(file File) *Config {
	return &Config{file: file, lookup: os.Getenv}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if strings.TrimSpace(file.Provider) == "" {
		return nil, fmt.Errorf("config %s: provider is required", path)
	}
	if strings.TrimSpace(file.Model) == "" {
		return nil, fmt.Errorf("config %s: model is required", path)
	}
	return New(file), nil
}

// DefaultPath returns the conventional configuration location,
// ~/.config/hoah/config.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(homeDir, ".config", "hoah", "config.yaml")
}

// SetEnvLookup replaces the environment lookup used for fallback keys.
func (c *Config) SetEnvLookup(fn func(string) string) {
	c.lookup = fn
}

// WithAWSProfile returns a copy of the configuration with the AWS
// profile replaced, for command-line overrides.
func (c *Config) WithAWSProfile(name string) *Config {
	clone := *c
	clone.file.AWSProfile = name
	return &clone
}

// Provider returns the normalized provider type.
func (c *Config) Provider() types.ProviderType {
	return types.ProviderType(strings.ToLower(strings.TrimSpace(c.file.Provider)))
}

// Model returns the configured model identifier.
func (c *Config) Model() string { return c.file.Model }

// Region returns the configured AWS region, if any.
func (c *Config) Region() string { return c.file.Region }

// AWSProfileName returns the AWS profile to resolve credentials from.
func (c *Config) AWSProfileName() string { return c.file.AWSProfile }

// AWSAccessKeyID returns the static access key ID, if any.
func (c *Config) AWSAccessKeyID() string { return c.file.AWSAccessKeyID }

// AWSSecretAccessKey returns the static secret key, if any.
func (c *Config) AWSSecretAccessKey() string { return c.file.AWSSecretAccessKey }

// APIKey returns the key configured for the active provider.
func (c *Config) APIKey() string {
	return c.file.APIKeys[string(c.Provider())]
}

// FallbackKey returns the environment key for the active provider,
// HOAH_<PROVIDER>_API_KEY.
func (c *Config) FallbackKey() string {
	name := "HOAH_" + strings.ToUpper(string(c.Provider())) + "_API_KEY"
	return c.lookup(name)
}

// ID identifies this configuration in validation bookkeeping. An
// explicit id field wins; otherwise provider/model.
func (c *Config) ID() string {
	if c.file.ID != "" {
		return c.file.ID
	}
	return string(c.Provider()) + "/" + c.file.Model
}

// Signature fingerprints the fields that affect session construction.
// Key material contributes presence only, never its value.
func (c *Config) Signature() string {
	return strings.Join([]string{
		string(c.Provider()),
		c.file.Model,
		c.file.Region,
		c.file.AWSProfile,
		c.file.AWSAccessKeyID,
		presence(c.file.AWSSecretAccessKey),
		presence(c.APIKey()),
		presence(c.FallbackKey()),
	}, "|")
}

func presence(secret string) string {
	if secret == "" {
		return "-"
	}
	return "set"
}

// EnhanceTimeout returns the per-request timeout.
func (c *Config) EnhanceTimeout() time.Duration {
	return durationOr(c.file.Enhancement.Timeout, DefaultEnhanceTimeout)
}

// MaxRetries returns the retry budget beyond the first attempt.
func (c *Config) MaxRetries() int {
	if c.file.Enhancement.MaxRetries != nil && *c.file.Enhancement.MaxRetries >= 0 {
		return *c.file.Enhancement.MaxRetries
	}
	return DefaultMaxRetries
}

// RateLimitInterval returns the minimum spacing between attempts.
func (c *Config) RateLimitInterval() time.Duration {
	return durationOr(c.file.Enhancement.RateLimitInterval, DefaultRateLimitInterval)
}

// Temperature returns the sampling temperature.
func (c *Config) Temperature() float64 {
	if c.file.Enhancement.Temperature > 0 {
		return c.file.Enhancement.Temperature
	}
	return DefaultTemperature
}

// ValidationTimeout returns the validation race timeout.
func (c *Config) ValidationTimeout() time.Duration {
	return durationOr(c.file.Validation.Timeout, DefaultValidationTimeout)
}

// ActivePrompt returns the selected prompt preset. An unknown or empty
// selection falls back to the first preset; with no presets both
// strings are empty and the caller supplies its own prompt.
func (c *Config) ActivePrompt() (name, system string) {
	if len(c.file.Prompts) == 0 {
		return "", ""
	}
	for _, p := range c.file.Prompts {
		if p.Name == c.file.ActivePrompt {
			return p.Name, p.System
		}
	}
	first := c.file.Prompts[0]
	return first.Name, first.System
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

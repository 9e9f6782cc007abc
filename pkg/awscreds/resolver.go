// Package awscreds resolves AWS credentials for Bedrock sessions from the
// local profile files, falling back to the AWS CLI's credential-export
// command for SSO, assume-role and credential-process profiles.
package awscreds

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	defaultProfile       = "default"
	defaultExportTimeout = 10 * time.Second
)

// ResolverConfig configures a Resolver. Zero values select the standard
// AWS file locations and the AWS CLI export command.
type ResolverConfig struct {
	CredentialsPath string        // defaults to ~/.aws/credentials
	ConfigPath      string        // defaults to ~/.aws/config
	ExportCommand   []string      // defaults to {"aws", "configure", "export-credentials"}
	ExportTimeout   time.Duration // defaults to 10s
	Logger          *log.Logger
}

// Resolver reads AWS profiles and produces session credentials
type Resolver struct {
	credentialsPath string
	configPath      string
	exportCommand   []string
	exportTimeout   time.Duration
	logger          *log.Logger
}

// NewResolver creates a Resolver with defaults filled in
func NewResolver(config ResolverConfig) *Resolver {
	if config.CredentialsPath == "" {
		config.CredentialsPath = defaultAWSPath("credentials")
	}
	if config.ConfigPath == "" {
		config.ConfigPath = defaultAWSPath("config")
	}
	if len(config.ExportCommand) == 0 {
		config.ExportCommand = []string{"aws", "configure", "export-credentials"}
	}
	if config.ExportTimeout <= 0 {
		config.ExportTimeout = defaultExportTimeout
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Resolver{
		credentialsPath: config.CredentialsPath,
		configPath:      config.ConfigPath,
		exportCommand:   config.ExportCommand,
		exportTimeout:   config.ExportTimeout,
		logger:          config.Logger,
	}
}

func defaultAWSPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", name)
}

// Resolve returns credentials for the named profile. Static key pairs in
// the credentials file win; profiles without one (SSO, assume-role,
// credential process) go through the external export command. The empty
// profile name means "default".
func (r *Resolver) Resolve(ctx context.Context, profile string) (types.AWSCredentials, error) {
	if profile == "" {
		profile = defaultProfile
	}

	creds, staticErr := r.resolveStatic(profile)
	if staticErr == nil {
		creds.Region = r.lookupRegion(profile)
		return creds, nil
	}

	if !r.profileExists(profile) {
		return types.AWSCredentials{}, staticErr
	}

	r.logger.Printf("[awscreds] no static credentials for profile %s, running credential export", profile)
	creds, err := r.exportCredentials(ctx, profile)
	if err != nil {
		return types.AWSCredentials{}, err
	}
	creds.Region = r.lookupRegion(profile)
	return creds, nil
}

// resolveStatic reads the credentials file for a static key pair
func (r *Resolver) resolveStatic(profile string) (types.AWSCredentials, error) {
	content, err := os.ReadFile(r.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.AWSCredentials{}, NewFileNotFoundError(r.credentialsPath)
		}
		return types.AWSCredentials{}, NewParseError(fmt.Sprintf("cannot read %s: %v", r.credentialsPath, err))
	}

	section, ok := parseINI(string(content))[profile]
	if !ok {
		return types.AWSCredentials{}, NewProfileNotFoundError(profile)
	}

	creds := types.AWSCredentials{
		AccessKeyID:     section["aws_access_key_id"],
		SecretAccessKey: section["aws_secret_access_key"],
		SessionToken:    section["aws_session_token"],
	}
	if !creds.HasKeyPair() {
		return types.AWSCredentials{}, NewInvalidCredentialsError(profile, "profile has no static key pair")
	}
	return creds, nil
}

// lookupRegion reads the region for a profile from the config file,
// returning empty when the file or setting is absent
func (r *Resolver) lookupRegion(profile string) string {
	content, err := os.ReadFile(r.configPath)
	if err != nil {
		return ""
	}
	section, ok := parseINI(string(content))[configSectionFor(profile)]
	if !ok {
		return ""
	}
	return section["region"]
}

// profileExists reports whether either AWS file mentions the profile
func (r *Resolver) profileExists(profile string) bool {
	for _, p := range r.ListProfiles() {
		if p == profile {
			return true
		}
	}
	return false
}

// ListProfiles returns the deduplicated, sorted union of profile names
// from the credentials and config files. Missing files yield an empty
// list, never an error.
func (r *Resolver) ListProfiles() []string {
	seen := make(map[string]bool)

	for _, path := range []string{r.credentialsPath, r.configPath} {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for name := range parseINI(string(content)) {
			if p := profileFromSection(name); p != "" {
				seen[p] = true
			}
		}
	}

	profiles := make([]string, 0, len(seen))
	for name := range seen {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// Package cmd implements the hoahctl command line interface.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/config"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	configPath string
	timeout    time.Duration
	profile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hoahctl",
		Short: "Enhance dictated text through LLM providers",
		Long: "hoahctl cleans up dictated text through a configured LLM provider " +
			"(OpenAI-compatible, Anthropic, or AWS Bedrock) and manages the provider configuration.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "Configuration file path")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Override the request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "Override the AWS profile")

	rootCmd.AddCommand(
		newEnhanceCmd(opts),
		newProfilesCmd(),
		newValidateCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if o.profile != "" {
		cfg = cfg.WithAWSProfile(o.profile)
	}
	return cfg, nil
}

func timeoutOr(override, configured time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return configured
}

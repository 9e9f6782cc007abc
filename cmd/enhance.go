package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/config"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/enhance"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/anthropic"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/bedrock"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/openai"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

func newEnhanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enhance [text]",
		Short: "Enhance dictated text through the configured provider",
		Long:  "Enhance cleans up one piece of dictated text. Pass the text as an argument or pipe it on stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			active, err := session.NewBuilder(session.BuilderConfig{}).Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build session: %w", err)
			}
			if active == nil {
				return fmt.Errorf("configuration %s has no usable credentials", cfg.ID())
			}

			coordinator := session.NewCoordinator(session.CoordinatorConfig{})
			coordinator.SetActiveSession(active, coordinator.BeginSwitch(cfg.ID()))

			enhancer := enhance.NewEnhancer(enhance.EnhancerConfig{
				Coordinator: coordinator,
				Registry:    newRegistry(cfg),
				Prompts:     promptsFor(cfg),
				Controller: enhance.NewController(enhance.ControllerConfig{
					Interval: cfg.RateLimitInterval(),
					Backoff:  backoffFor(cfg),
				}),
				Timeout: timeoutOr(opts.timeout, cfg.EnhanceTimeout()),
			})

			result, err := enhancer.Enhance(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("enhance: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s/%s answered in %s\n",
				cfg.Provider(), cfg.Model(), result.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		text := strings.TrimSpace(args[0])
		if text == "" {
			return "", fmt.Errorf("nothing to enhance")
		}
		return text, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("nothing to enhance: pass text as an argument or on stdin")
	}
	return text, nil
}

// newRegistry wires the built-in dispatchers with the configured
// sampling temperature.
func newRegistry(cfg *config.Config) *providers.Registry {
	r := providers.NewRegistry()

	chat := openai.NewDispatcher(openai.Config{Temperature: cfg.Temperature()})
	r.Register(types.ProviderTypeOpenAI, chat)
	r.Register(types.ProviderTypeGroq, chat)
	r.Register(types.ProviderTypeCerebras, chat)
	r.Register(types.ProviderTypeOpenRouter, chat)

	r.Register(types.ProviderTypeAnthropic, anthropic.NewDispatcher(anthropic.Config{}))
	r.Register(types.ProviderTypeBedrock, bedrock.NewDispatcher(bedrock.Config{Temperature: cfg.Temperature()}))

	return r
}

// promptsFor returns the configuration as the prompt source when it
// carries presets. Otherwise the enhancer's built-in prompt applies.
func promptsFor(cfg *config.Config) enhance.PromptSource {
	if name, _ := cfg.ActivePrompt(); name != "" {
		return cfg
	}
	return nil
}

func backoffFor(cfg *config.Config) httputil.BackoffConfig {
	backoff := httputil.DefaultBackoffConfig()
	backoff.MaxRetries = cfg.MaxRetries()
	return backoff
}

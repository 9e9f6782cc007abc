package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/validate"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the configured provider accepts the credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			validator := validate.NewValidator(validate.ValidatorConfig{
				Coordinator: session.NewCoordinator(session.CoordinatorConfig{}),
				Timeout:     timeoutOr(opts.timeout, cfg.ValidationTimeout()),
			})

			start := time.Now()
			if err := validator.ValidateOnce(cmd.Context(), cfg); err != nil {
				var verr *validate.ValidationError
				if errors.As(err, &verr) {
					fmt.Fprintf(cmd.ErrOrStderr(), "validation failed: %s\nhint: %s\n", verr.Message, verr.Suggestion())
					return fmt.Errorf("configuration %s failed validation", cfg.ID())
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration %s validated in %s\n",
				cfg.ID(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

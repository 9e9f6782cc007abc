package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/awscreds"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List AWS profiles available for Bedrock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles := awscreds.NewResolver(awscreds.ResolverConfig{}).ListProfiles()
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no AWS profiles found")
				return nil
			}
			for _, name := range profiles {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

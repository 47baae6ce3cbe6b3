package main

import (
	"fmt"

	"github.com/docflow/docflow/internal/config"
	"github.com/docflow/docflow/internal/tokens"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newTokenCommand mints an HS256 access token for local use against a server
// configured with the same JWT_SECRET.
func newTokenCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user>",
		Short: "Issue a signed access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(v)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = cfg.JWT.AccessTokenTTL
			}
			name, _ := cmd.Flags().GetString("name")
			tok, err := tokens.GenerateAccessToken(cfg.JWT, args[0], name, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 0, "token lifetime (default JWT_ACCESS_TOKEN_TTL)")
	cmd.Flags().String("name", "", "display name claim")
	cmd.Flags().String("secret", "", "signing secret (default JWT_SECRET)")
	mustBindFlag(v, "JWT_SECRET", cmd.Flags().Lookup("secret"))
	return cmd
}

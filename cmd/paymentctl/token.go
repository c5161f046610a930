package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alxtravel/server/internal/shared/auth"
)

func tokenCmd(opts *options) *cobra.Command {
	var (
		userID uint64
		email  string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return errors.New("--user-id is required")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if expiry <= 0 {
				expiry = cfg.Auth.AccessTokenExpiry
			}

			manager := auth.NewJWTManager(auth.JWTConfig{
				Secret:            cfg.Auth.JWTSecret,
				Issuer:            cfg.Auth.Issuer,
				AccessTokenExpiry: expiry,
			})
			token, expiresAt, err := manager.GenerateAccessToken(userID, email)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"access_token": token,
				"expires_at":   expiresAt.UTC(),
			})
		},
	}
	cmd.Flags().Uint64Var(&userID, "user-id", 0, "user to issue the token for")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (defaults to auth.access_token_expiry)")

	return cmd
}

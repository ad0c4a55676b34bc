package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/conference-agenda/internal/http"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an attendee",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			auth, err := httptransport.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, nil)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "attendee user ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	iauth "github.com/charlesng35/tarotgarden/internal/auth"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with user access tokens",
	}

	var input iauth.AccessTokenInput
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token signed with the configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
				return errors.New("auth.jwt.secret must be configured to issue tokens")
			}

			svc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
			if err != nil {
				return err
			}
			token, err := svc.IssueAccessToken(input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&input.UserID, "user", "", "User id placed in the subject claim")
	issue.Flags().StringVar(&input.Email, "email", "", "Email claim")
	issue.Flags().StringVar(&input.Provider, "provider", "", "Sign-in provider claim")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}

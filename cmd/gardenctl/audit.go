package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/tarotgarden/internal/database"
	"github.com/charlesng35/tarotgarden/internal/security"
)

var errAuditFailed = errors.New("security audit reported failures")

func newAuditCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check the configuration for unsafe settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database.Connection())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close(db)
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			result := security.NewAuditService(db, cfg).Run(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Failed() {
				return errAuditFailed
			}
			return nil
		},
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"safecheck/internal/config"
	"safecheck/internal/store"
)

var totpResetYes bool

var totpResetCmd = &cobra.Command{
	Use:   "totp-reset <user-id>",
	Short: "Remove an admin's 2FA enrollment",
	Long: `totp-reset deletes the stored TOTP secret of a backend user id, so the
admin enrolls again on the next login. Use it when an authenticator is lost.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if !cfg.DBEnabled() {
			return errors.New("POSTGRES_HOST is not set")
		}

		if !totpResetYes {
			confirm := false
			prompt := &survey.Confirm{Message: fmt.Sprintf("Reset 2FA for user %s?", userID)}
			if err := survey.AskOne(prompt, &confirm); err != nil {
				return fmt.Errorf("prompt: %w", err)
			}
			if !confirm {
				return nil
			}
		}

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewTOTPStore(db).Reset(userID); err != nil {
			return err
		}
		slog.Info("totp enrollment reset", "user_id", userID)
		fmt.Fprintln(cmd.OutOrStdout(), "2FA reset")
		return nil
	},
}

func init() {
	totpResetCmd.Flags().BoolVarP(&totpResetYes, "yes", "y", false, "Skip the confirmation prompt")
}

// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulkforce/cli/internal/auth"
	"bulkforce/cli/internal/keychain"
)

// logoutCmd removes the stored login. The remote session is not revoked
// and expires on its own.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session and refresh token",
	Long: `The logout command clears the authentication state bulkforce keeps in the
OS keychain: the session id, the OAuth refresh token and the login summary.
Environment variables and .env files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := auth.NewService(nil, km, logger).Logout(); err != nil {
			return err
		}

		fmt.Println("✅ Stored session and tokens have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

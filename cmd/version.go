// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and API version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Defaults()
		fmt.Printf("bulkforce %s\n", Version)
		fmt.Printf("bulk api  %s (default)\n", cfg.APIVersion)
		fmt.Printf("domain    %s (default)\n", backend.DefaultBaseDomain)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

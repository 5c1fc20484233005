// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Bulkforce CLI.
// It implements subcommands for logging in to Salesforce, submitting bulk
// insert, update, upsert, delete and query jobs, and following their batches,
// using the Cobra CLI framework with pterm for terminal output.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bulkforce/cli/internal/logging"
	"bulkforce/cli/internal/xdg"
)

var (
	showVersion bool
	envFile     string
	logLevel    string

	// logger is built once flags are parsed. Commands never see nil.
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bulkforce",
	Short: "Submit Salesforce Bulk API jobs from the command line",
	Long: `Bulkforce uploads CSV files to the Salesforce Bulk API as insert, update,
upsert or delete jobs, runs SOQL queries as bulk query jobs, and follows the
resulting batches until they finish.

Credentials come from SALESFORCE_* environment variables, an optional .env
file, or a session stored by 'bulkforce login'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		l, err := logging.New(resolveLogLevel(cmd))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("bulkforce %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Interrupts cancel the command context
// so that polling stops and temporary archives are removed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default <config dir>/bulkforce/.env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
}

// loadEnvFile loads path, or the default file under the config directory
// when path is empty. Variables already set in the environment win. A
// missing default file is not an error.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}

	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil
	}
	def := filepath.Join(dir, ".env")
	if err := godotenv.Load(def); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", def, err)
	}
	return nil
}

// resolveLogLevel prefers an explicit flag, then BULKFORCE_LOG_LEVEL and
// LOG_LEVEL, then the flag default.
func resolveLogLevel(cmd *cobra.Command) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	for _, key := range []string{"BULKFORCE_LOG_LEVEL", "LOG_LEVEL"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return logLevel
}

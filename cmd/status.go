// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"bulkforce/cli/internal/batch"
	"bulkforce/cli/internal/connection"
)

var (
	statusQuery  bool
	statusWait   bool
	statusOutput string
)

// statusCmd reports on a batch submitted earlier.
var statusCmd = &cobra.Command{
	Use:   "status <job-id> <batch-id>",
	Short: "Show the state of a submitted batch",
	Long: `The status command polls a batch once and prints its state. With --wait it
keeps polling at BULKFORCE_POLL_INTERVAL until the batch leaves Queued and
InProgress, then prints the results. Pass --query for batches of query jobs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, _, err := connection.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}

		b := batch.New(conn, args[0], args[1], statusQuery,
			batch.WithPollInterval(cfg.PollInterval),
			batch.WithLogger(logger))

		if statusWait {
			return follow(ctx, b, statusOutput)
		}

		st, err := b.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(b, st)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusQuery, "query", false, "The batch belongs to a query job")
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "Wait for the batch to finish and print its results")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "Write results to this file instead of stdout")
	rootCmd.AddCommand(statusCmd)
}

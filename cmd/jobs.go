// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bulkforce/cli/internal/batch"
	"bulkforce/cli/internal/bulk"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/record"
)

// jobFlags are shared by the insert, update, upsert and delete commands.
type jobFlags struct {
	file        string
	attachments []string
	externalID  string
	wait        bool
	output      string
}

func newJobCmd(op bulk.Operation, short string) *cobra.Command {
	var f jobFlags
	c := &cobra.Command{
		Use:   string(op) + " <object>",
		Short: short,
		Long: fmt.Sprintf(`Submits the rows of a CSV file as one %s batch against <object>.

Columns named with --attachment-field hold file paths relative to the CSV
file; those files are packed with the rows into a ZIP upload. The job is
closed right after the batch is accepted. Use --wait to follow the batch
until Salesforce has processed it and print the per-record results.`, op),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if op == bulk.OpUpsert && f.externalID == "" {
				return bferrors.New(bferrors.Config, "upsert requires --external-id")
			}
			return runJob(cmd.Context(), op, args[0], f)
		},
	}
	c.Flags().StringVarP(&f.file, "file", "f", "", "CSV file with a header row (required)")
	c.Flags().StringSliceVar(&f.attachments, "attachment-field", nil, "Column holding attachment file paths (repeatable)")
	c.Flags().BoolVarP(&f.wait, "wait", "w", false, "Wait for the batch to finish and print its results")
	c.Flags().StringVarP(&f.output, "output", "o", "", "Write results to this file instead of stdout")
	_ = c.MarkFlagRequired("file")
	if op == bulk.OpUpsert {
		c.Flags().StringVar(&f.externalID, "external-id", "", "External id field records are matched on (required)")
	}
	return c
}

func init() {
	rootCmd.AddCommand(
		newJobCmd(bulk.OpInsert, "Insert records from a CSV file"),
		newJobCmd(bulk.OpUpdate, "Update records by Id from a CSV file"),
		newJobCmd(bulk.OpUpsert, "Upsert records on an external id from a CSV file"),
		newJobCmd(bulk.OpDelete, "Delete records by Id from a CSV file"),
	)
}

func runJob(ctx context.Context, op bulk.Operation, object string, f jobFlags) error {
	records, closeFiles, err := readRecords(f.file, f.attachments)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFiles(); err != nil {
			logger.Warn("attachment not closed", zap.Error(err))
		}
	}()

	client, err := openClient(ctx)
	if err != nil {
		return err
	}

	stop := startSpinner(fmt.Sprintf("Submitting %d %s record(s) to %s", len(records), op, object))
	b, err := submit(ctx, client, op, object, records, f.externalID)
	stop()
	if err != nil {
		return err
	}

	if b.BatchID == "" {
		pterm.Info.Printf("No records in %s; job %s closed without a batch\n", f.file, b.JobID)
		return nil
	}
	pterm.Success.Printf("Submitted batch %s to job %s\n", b.BatchID, b.JobID)

	if !f.wait {
		fmt.Printf("Follow it with: bulkforce status %s %s --wait\n", b.JobID, b.BatchID)
		return nil
	}
	return follow(ctx, b, f.output)
}

func submit(ctx context.Context, c *bulk.Client, op bulk.Operation, object string, records []record.Record, externalID string) (*batch.Batch, error) {
	switch op {
	case bulk.OpInsert:
		return c.Insert(ctx, object, records)
	case bulk.OpUpdate:
		return c.Update(ctx, object, records)
	case bulk.OpUpsert:
		return c.Upsert(ctx, object, records, externalID)
	case bulk.OpDelete:
		return c.Delete(ctx, object, records)
	default:
		return nil, bferrors.New(bferrors.Config, fmt.Sprintf("unsupported operation %q", op))
	}
}

// follow polls b until it leaves the pending states, then prints the
// status table and writes any results.
func follow(ctx context.Context, b *batch.Batch, output string) error {
	sp := startProgress("Waiting for batch " + b.BatchID)
	batch.WithProgress(func(st batch.Status) { sp.Update(progressText(st)) })(b)
	st, err := b.FinalStatus(ctx)
	sp.Stop()
	if err != nil {
		return err
	}

	printStatus(b, st)
	if len(st.Results) == 0 {
		return nil
	}
	return writeResults(st.Results, output)
}

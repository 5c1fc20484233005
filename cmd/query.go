// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	queryWait   bool
	queryOutput string
)

// queryCmd runs a SOQL statement as a bulk query job.
var queryCmd = &cobra.Command{
	Use:   "query <object> <soql>",
	Short: "Run a SOQL query as a bulk query job",
	Long: `The query command opens a query job against <object>, submits <soql> as its
only batch and closes the job. By default it then waits for the batch and
prints the result sets as one CSV document.`,
	Example: `  bulkforce query Account "SELECT Id, Name FROM Account"
  bulkforce query Contact "SELECT Id FROM Contact" -o contacts.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}

		stop := startSpinner("Submitting query against " + args[0])
		b, err := client.Query(ctx, args[0], args[1])
		stop()
		if err != nil {
			return err
		}
		pterm.Success.Printf("Submitted query batch %s to job %s\n", b.BatchID, b.JobID)

		if !queryWait {
			pterm.Println("Follow it with: bulkforce status " + b.JobID + " " + b.BatchID + " --query --wait")
			return nil
		}
		return follow(ctx, b, queryOutput)
	},
}

func init() {
	queryCmd.Flags().BoolVarP(&queryWait, "wait", "w", true, "Wait for the query to finish and print its results")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "Write results to this file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}

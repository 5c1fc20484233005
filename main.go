// Package main is the entry point for the Bulkforce CLI application.
// It submits Salesforce Bulk API jobs from CSV files and SOQL queries.
package main

import (
	"bulkforce/cli/cmd"
)

// main initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}

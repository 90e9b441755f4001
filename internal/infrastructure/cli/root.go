// Package cli implements the spacecheck command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "spacecheck",
	Version: Version,
	Short:   "Checklist-driven analysis of Databricks Genie Space configurations",
	Long: `Spacecheck analyzes Databricks Genie Space configurations against a
best-practices checklist. Deterministic checks run in-process; qualitative
checks are evaluated by an LLM judge. Every section gets a compliance score
and actionable findings.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

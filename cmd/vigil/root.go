package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// exitCode is the process exit status set by commands that
	// distinguish outcomes beyond success and failure.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - compliance rule evaluation engine",
	Long: `Vigil evaluates declarative compliance rules against tabular data.

Rules pair a condition expression with a data source; vigil scans the
source, applies the optional filter, and reports every row that fails
the condition. Runs can be one-shot, scheduled, or triggered by file
changes, with results recorded in a tamper-evident history store.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "vigil.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

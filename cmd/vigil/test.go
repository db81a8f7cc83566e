package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/rules"
	"corvid-labs/vigil/pkg/telemetry/logging"
)

var testFlags struct {
	path    string
	verbose bool
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run inline rule tests",
	Long: `Run the inline tests declared in rule files.

Each test names a rule, supplies a synthetic row, and asserts the
outcome: pass, violation, excluded, or error. Tests let rule authors
verify expressions against known records without touching real data.

Examples:
  # Run tests in a directory of rule files
  vigil test --path rules/

  # Run tests in a single file, showing every case
  vigil test --path rules/access.yaml --verbose`,
	RunE: runRuleTests,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testFlags.path, "path", "p", "rules", "rule file or directory to test")
	testCmd.Flags().BoolVar(&testFlags.verbose, "verbose-tests", false, "print passing tests as well as failures")
}

func runRuleTests(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logging.Config{Level: "error"})
	if err != nil {
		return err
	}

	set, err := rules.NewLoader(logger).LoadPath(testFlags.path)
	if err != nil {
		return cli.NewCommandError("test", err)
	}
	if len(set.Tests) == 0 {
		fmt.Printf("no tests found in %s\n", testFlags.path)
		return nil
	}

	byID := make(map[string]*rules.Rule, len(set.Rules))
	for _, rule := range set.Rules {
		byID[rule.ID] = rule
	}

	var passed, failed int
	for _, tc := range set.Tests {
		rule, ok := byID[tc.Rule]
		if !ok {
			failed++
			fmt.Printf("✗ %s: rule %q not found (%s)\n", tc.Name, tc.Rule, tc.SourceFile)
			continue
		}

		outcome, detail := engine.CheckRow(rule, datasource.RowOf(tc.Row))
		if string(outcome) == string(tc.Want) {
			passed++
			if testFlags.verbose || verbose {
				fmt.Printf("✓ %s [%s]\n", tc.Name, tc.Rule)
			}
			continue
		}

		failed++
		fmt.Printf("✗ %s [%s]: want %s, got %s", tc.Name, tc.Rule, tc.Want, outcome)
		if detail != "" {
			fmt.Printf(" (%s)", detail)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Printf("Tests: %d passed, %d failed, %d total\n", passed, failed, passed+failed)

	if failed > 0 {
		return cli.NewCommandError("test", fmt.Errorf("%d test(s) failed", failed))
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/rules"
	"corvid-labs/vigil/pkg/telemetry/logging"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and semantic errors.

The lint command loads rule files and performs full validation:
  - YAML syntax validation
  - Rule structure validation (required fields, unique ids, severities)
  - Expression validation (condition and filter parse, boolean shape)
  - Inline test validation (referenced rules exist, outcomes are known)

Examples:
  # Lint a single file
  vigil lint --file rules/access.yaml

  # Lint a directory
  vigil lint --dir rules/

  # Strict mode (warnings as errors)
  vigil lint --dir rules/ --strict

  # JSON output for CI
  vigil lint --dir rules/ --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	// Lint output must stay clean; loader chatter goes nowhere.
	logger, err := logging.New(logging.Config{Level: "error"})
	if err != nil {
		return err
	}
	loader := rules.NewLoader(logger)

	path := lintFlags.file
	if path == "" {
		path = lintFlags.dir
	}

	set, err := loader.LoadPath(path)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}
	if len(set.Rules) == 0 {
		return fmt.Errorf("no rules found in %s", path)
	}

	result := rules.Validate(set)

	if lintFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		printLintText(path, set, result)
	}

	if !result.Valid() {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
	}
	if lintFlags.strict && result.WarningCount() > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed (strict mode, %d warnings)", result.WarningCount()))
	}
	return nil
}

func printLintText(path string, set *rules.Set, result *rules.Result) {
	fmt.Printf("Validating %s...\n", path)

	if len(result.Issues) == 0 {
		fmt.Printf("✓ %d rule(s) loaded\n", len(set.Rules))
		fmt.Println("✓ All rules have valid conditions")
	}

	for _, issue := range result.Issues {
		marker := "✗ Error"
		if issue.Level == rules.LevelWarning {
			marker = "⚠  Warning"
		}
		fmt.Printf("%s: %s", marker, issue.Message)
		if issue.File != "" {
			fmt.Printf(" (%s", issue.File)
			if issue.Line > 0 {
				fmt.Printf(":%d", issue.Line)
			}
			fmt.Print(")")
		}
		if issue.RuleID != "" {
			fmt.Printf(" [%s]", issue.RuleID)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Printf("Summary: %d error(s), %d warning(s)\n", result.ErrorCount(), result.WarningCount())
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/config"
	"corvid-labs/vigil/pkg/schedule"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without running anything.

The validate command loads the configuration, applies defaults and
environment overrides, and reports whether the result is usable:
engine limits in range, report formats known, schedule expressions
parseable, rule paths present.

Examples:
  # Validate the default config file
  vigil validate

  # Validate a specific file
  vigil validate --config deploy/vigil.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n", cfgFile)

	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if cfg.Schedule.Spec != "" {
		if err := schedule.ValidateSpec(cfg.Schedule.Spec); err != nil {
			return cli.NewConfigError("schedule.spec", err.Error())
		}
	}
	if cfg.History.Retention.PruneSchedule != "" {
		if err := schedule.ValidateSpec(cfg.History.Retention.PruneSchedule); err != nil {
			return cli.NewConfigError("history.retention.prune_schedule", err.Error())
		}
	}

	fmt.Println("✓ Configuration is valid")
	fmt.Println()
	fmt.Printf("Engine:        %d workers, %s rule timeout\n", cfg.Engine.Workers, cfg.Engine.RuleTimeout)
	fmt.Printf("Rules:         %v", cfg.Rules.Paths)
	if cfg.Rules.Git.Enabled {
		fmt.Printf(" (git: %s@%s)", cfg.Rules.Git.Repository, cfg.Rules.Git.Branch)
	}
	fmt.Println()
	fmt.Printf("Data dir:      %s\n", cfg.Sources.DataDir)
	fmt.Printf("Named sources: %d\n", len(cfg.Sources.Named))

	historyState := "enabled"
	if cfg.History.Enabled != nil && !*cfg.History.Enabled {
		historyState = "disabled"
	}
	fmt.Printf("History:       %s (%s)\n", historyState, cfg.History.Path)
	fmt.Printf("Reports:       %v to %s\n", cfg.Reports.Formats, cfg.Reports.OutputDir)

	notifyState := "disabled"
	if cfg.Notifications.Enabled {
		notifyState = "enabled, min severity " + cfg.Notifications.MinSeverity
	}
	fmt.Printf("Notifications: %s\n", notifyState)
	fmt.Printf("Schedule:      %s\n", schedule.NormalizeSpec(cfg.Schedule.Spec))

	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/rules"
)

var watchFlags struct {
	rulePaths []string
	debounce  time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run scans when rule or data files change",
	Long: `Watch rule and data files and re-run the scan on every change.

Watch mode is meant for rule development: edit a rule or a data file,
save, and see the updated results immediately. Results print to the
console; file reports and notifications are not produced.

Examples:
  # Watch the configured rule paths and data directory
  vigil watch

  # Watch specific rule files
  vigil watch --rules rules/access.yaml --rules rules/crypto.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVarP(&watchFlags.rulePaths, "rules", "r", nil, "rule files or directories to watch, overrides configured paths")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 250*time.Millisecond, "quiet period before re-running after a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := shutdownContext()
		defer cancel()
		a.Close(shutdownCtx)
	}()

	rulePaths := watchFlags.rulePaths
	if len(rulePaths) == 0 {
		rulePaths = a.cfg.Rules.Paths
	}

	paths := append([]string{}, rulePaths...)
	if a.cfg.Sources.DataDir != "" {
		paths = append(paths, a.cfg.Sources.DataDir)
	}

	watcherCfg := rules.DefaultWatcherConfig()
	watcherCfg.Paths = paths
	watcherCfg.DebounceInterval = watchFlags.debounce

	watcher, err := rules.NewWatcher(watcherCfg, a.logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	rerun := func() error {
		return a.watchRun(ctx, rulePaths)
	}

	// First scan before settling into the watch loop.
	if err := rerun(); err != nil {
		a.logger.Error("initial scan failed", "error", err)
	}

	return watcher.Watch(ctx, rerun)
}

// watchRun executes one console-only scan cycle for watch mode.
func (a *app) watchRun(ctx context.Context, rulePaths []string) error {
	set, err := a.loadRuleSet(ctx, rulePaths)
	if err != nil {
		return err
	}
	if len(set.Rules) == 0 {
		return fmt.Errorf("no rules found")
	}

	run, err := a.engine.Run(ctx, set.Rules)
	if err != nil {
		return err
	}

	a.saveRun(ctx, run)
	return a.writeReports(run, []string{"console"}, "")
}

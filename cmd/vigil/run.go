package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/config"
	"corvid-labs/vigil/pkg/engine"
)

var runFlags struct {
	rulePaths []string
	dataDir   string
	formats   []string
	outputDir string
	workers   int
	timeout   string
	progress  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all rules once",
	Long: `Run every configured rule against its data source and report the
violations found.

Rules are evaluated concurrently up to the configured worker count; a
rule that fails to evaluate is reported as errored without affecting
other rules. The run is recorded in the history store and rendered in
the configured report formats.

Exit codes:
  0  every rule passed
  1  violations were found
  2  one or more rules failed to evaluate
  3  both violations and rule failures

Examples:
  # Run with the default config
  vigil run

  # Run a specific rule directory against a data directory
  vigil run --rules ./rules --data-dir ./data

  # Write every file format alongside the console report
  vigil run --format all --output ./reports`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runFlags.rulePaths, "rules", "r", nil, "rule files or directories (overrides config)")
	runCmd.Flags().StringVar(&runFlags.dataDir, "data-dir", "", "data directory (overrides config)")
	runCmd.Flags().StringSliceVarP(&runFlags.formats, "format", "f", nil, "report formats: console, json, csv, html, all")
	runCmd.Flags().StringVarP(&runFlags.outputDir, "output", "o", "", "report output directory (overrides config)")
	runCmd.Flags().IntVarP(&runFlags.workers, "workers", "w", 0, "concurrent rule evaluations (overrides config)")
	runCmd.Flags().StringVar(&runFlags.timeout, "timeout", "", "per-rule timeout, e.g. 45s (overrides config)")
	runCmd.Flags().BoolVar(&runFlags.progress, "progress", false, "show a progress bar on stderr while scanning")
}

// progressMetrics feeds rule completions into a progress bar while
// passing observations through to the real metrics sink.
type progressMetrics struct {
	bar  cli.ProgressReporter
	next engine.Metrics
}

func (p *progressMetrics) ObserveRule(result *engine.RuleResult) {
	p.bar.Increment()
	if p.next != nil {
		p.next.ObserveRule(result)
	}
}

func (p *progressMetrics) ObserveRun(result *engine.RunResult) {
	if p.next != nil {
		p.next.ObserveRun(result)
	}
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	applyRunOverrides(cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, cancel := shutdownContext()
		defer cancel()
		a.Close(shutCtx)
	}()

	set, err := a.loadRuleSet(ctx, runFlags.rulePaths)
	if err != nil {
		return err
	}
	if len(set.Rules) == 0 {
		return cli.NewCommandError("run", fmt.Errorf("no rules found"))
	}

	var bar cli.ProgressReporter
	if runFlags.progress {
		bar = cli.NewProgressReporter(os.Stderr)
		var next engine.Metrics
		if a.collector != nil {
			next = a.collector
		}
		a.engine.SetMetrics(&progressMetrics{bar: bar, next: next})
		bar.Start(int64(len(set.Rules)))
	}

	run, err := a.engine.Run(ctx, set.Rules)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	a.saveRun(ctx, run)

	formats := runFlags.formats
	if len(formats) == 0 {
		formats = cfg.Reports.Formats
	}
	outputDir := runFlags.outputDir
	if outputDir == "" {
		outputDir = cfg.Reports.OutputDir
	}
	if err := a.writeReports(run, formats, outputDir); err != nil {
		return err
	}

	a.notifyRun(ctx, run)

	exitCode = exitCodeFor(run)
	return nil
}

// applyRunOverrides folds the run flags into the loaded config.
func applyRunOverrides(cfg *config.Config) {
	if runFlags.dataDir != "" {
		cfg.Sources.DataDir = runFlags.dataDir
	}
	if runFlags.workers > 0 {
		cfg.Engine.Workers = runFlags.workers
	}
	if runFlags.timeout != "" {
		d, err := time.ParseDuration(runFlags.timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ignoring invalid --timeout %q: %v\n", runFlags.timeout, err)
			return
		}
		cfg.Engine.RuleTimeout = d
	}
}

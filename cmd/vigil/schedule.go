package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	rulesgit "corvid-labs/vigil/pkg/rules/git"
	"corvid-labs/vigil/pkg/schedule"
	"corvid-labs/vigil/pkg/server"
)

var scheduleFlags struct {
	spec string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run compliance scans on a cron schedule",
	Long: `Run compliance scans on a cron schedule until interrupted.

The schedule comes from the configuration's schedule.spec, or from the
--spec flag. Standard five-field cron expressions are accepted, as are
the shorthands "hourly", "daily" and "weekly". While the scheduler is
running, the retention policy is applied on its own schedule and, when
metrics are enabled, an admin server exposes health, status and
Prometheus endpoints.

Examples:
  # Use the configured schedule
  vigil schedule

  # Scan every 15 minutes
  vigil schedule --spec "*/15 * * * *"

  # Scan daily
  vigil schedule --spec daily`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.spec, "spec", "", "cron expression or shorthand, overrides the configured schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
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

	spec := scheduleFlags.spec
	if spec == "" {
		spec = a.cfg.Schedule.Spec
	}
	if err := schedule.ValidateSpec(spec); err != nil {
		return cli.NewConfigError("schedule.spec", err.Error())
	}

	scheduler := schedule.NewScheduler(a.logger)

	if err := scheduler.Add(ctx, "compliance-run", spec, func(jobCtx context.Context) error {
		return a.scheduledRun(jobCtx)
	}); err != nil {
		return cli.NewCommandError("schedule", err)
	}

	if p := a.pruner(); p != nil {
		pruneSpec := a.cfg.History.Retention.PruneSchedule
		if err := scheduler.Add(ctx, "history-prune", pruneSpec, func(jobCtx context.Context) error {
			_, err := p.Prune(jobCtx)
			return err
		}); err != nil {
			return cli.NewCommandError("schedule", err)
		}
	}

	poller, err := a.startRulePolling(ctx)
	if err != nil {
		return err
	}
	if poller != nil {
		defer poller.Stop()
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	a.logger.Info("scheduler started", "spec", schedule.NormalizeSpec(spec))

	if a.cfg.Telemetry.Metrics.Enabled {
		var metricsHandler http.Handler
		if a.collector != nil {
			metricsHandler = a.collector.Handler()
		}
		admin := server.NewAdminServer(&a.cfg.Telemetry.Metrics, metricsHandler, scheduler, a.logger)
		return admin.Start(ctx)
	}

	<-ctx.Done()
	return nil
}

// scheduledRun executes one full scan cycle: load rules, evaluate,
// archive, report to the configured output directory and notify.
func (a *app) scheduledRun(ctx context.Context) error {
	set, err := a.loadRuleSet(ctx, nil)
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

	formats := a.cfg.Reports.Formats
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	if err := a.writeReports(run, formats, a.cfg.Reports.OutputDir); err != nil {
		a.logger.Error("failed to write reports", "error", err)
	}

	a.notifyRun(ctx, run)

	a.logger.Info("scheduled run finished",
		"run_id", run.ID,
		"violations", run.Summary.Violations,
		"errored_rules", run.Summary.ErroredRules,
	)
	return nil
}

// startRulePolling starts the Git rule poller when the Git source and
// polling are both enabled. Returns nil when polling is off.
func (a *app) startRulePolling(ctx context.Context) (*rulesgit.Poller, error) {
	gitCfg := &a.cfg.Rules.Git
	if !gitCfg.Enabled {
		return nil, nil
	}
	if err := a.ensureGitRules(ctx); err != nil {
		return nil, err
	}
	if gitCfg.Poll.Enabled != nil && !*gitCfg.Poll.Enabled {
		return nil, nil
	}

	poller := rulesgit.NewPoller(a.gitRepo, gitCfg.Poll.Interval, a.logger, func(rulesPath string) error {
		a.logger.Info("rule repository changed", "path", rulesPath)
		return nil
	})
	if err := poller.Start(ctx); err != nil {
		return nil, cli.NewCommandError("schedule", err)
	}
	return poller, nil
}

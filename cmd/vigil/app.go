package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/config"
	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/history"
	"corvid-labs/vigil/pkg/history/storage"
	"corvid-labs/vigil/pkg/notify"
	"corvid-labs/vigil/pkg/report"
	"corvid-labs/vigil/pkg/rules"
	rulesgit "corvid-labs/vigil/pkg/rules/git"
	"corvid-labs/vigil/pkg/secrets"
	"corvid-labs/vigil/pkg/telemetry/logging"
	"corvid-labs/vigil/pkg/telemetry/metrics"
	"corvid-labs/vigil/pkg/telemetry/tracing"
)

// app bundles the components commands wire up from configuration.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *datasource.Registry
	engine    *engine.Engine
	store     history.Store
	collector *metrics.Collector
	tracer    *tracing.Tracer
	gitRepo   *rulesgit.Repository
}

// loadConfig loads the config file, applies environment overrides and
// resolves secret references.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if err := config.ResolveSecrets(ctx, cfg, secrets.Default()); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to resolve secrets: %v", err))
	}
	return cfg, nil
}

// newAppLogger builds the process logger. The --verbose flag overrides
// the configured level.
func newAppLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, cli.NewConfigError("logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// buildApp loads configuration and wires the full component set.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

// newApp wires the engine, data sources, history store and telemetry
// from an already loaded configuration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := newAppLogger(cfg)
	if err != nil {
		return nil, err
	}

	registry := datasource.NewRegistry(cfg.Sources.DataDir, logger)
	if err := registerSources(registry, cfg); err != nil {
		return nil, err
	}

	engineCfg := &engine.Config{
		Workers:              cfg.Engine.Workers,
		RuleTimeout:          cfg.Engine.RuleTimeout,
		MaxViolationsPerRule: cfg.Engine.MaxViolationsPerRule,
	}
	eng, err := engine.New(registry, engineCfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		engine:   eng,
	}

	if cfg.Telemetry.Metrics.Enabled {
		a.collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)
		eng.SetMetrics(a.collector)
	}

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}
	a.tracer = tracer
	if tracer.Enabled() {
		eng.SetTracer(tracer.Tracer())
	}

	if cfg.History.Enabled == nil || *cfg.History.Enabled {
		store, err := storage.NewSQLiteStore(storage.SQLiteConfig{
			Path:        cfg.History.Path,
			BusyTimeout: cfg.History.BusyTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.store = store
	}

	return a, nil
}

// Close releases the app's long-lived resources.
func (a *app) Close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close history store", "error", err)
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shut down tracer", "error", err)
		}
	}
}

// registerSources adds the configured named sources to the registry.
func registerSources(registry *datasource.Registry, cfg *config.Config) error {
	for name, src := range cfg.Sources.Named {
		source, err := buildNamedSource(name, src, cfg.Sources.DataDir)
		if err != nil {
			return cli.NewConfigError("sources.named."+name, err.Error())
		}
		if err := registry.Register(name, source); err != nil {
			return cli.NewConfigError("sources.named."+name, err.Error())
		}
	}
	return nil
}

func buildNamedSource(name string, src config.NamedSourceConfig, dataDir string) (datasource.Source, error) {
	path := src.Path
	if path != "" && !filepath.IsAbs(path) && dataDir != "" {
		path = filepath.Join(dataDir, path)
	}

	switch src.Driver {
	case "csv":
		return datasource.NewCSVFile(path, ','), nil
	case "json":
		return datasource.NewJSONFile(path), nil
	case "sqlite":
		if src.Query != "" {
			return datasource.NewSQLQuery(name, "sqlite", path, src.Query)
		}
		return datasource.NewSQLiteTable(path, src.Table)
	case "postgres":
		if src.Query != "" {
			return datasource.NewSQLQuery(name, "postgres", src.DSN, src.Query)
		}
		return datasource.NewPostgresTable(name, src.DSN, src.Table)
	default:
		return nil, fmt.Errorf("unsupported driver %q", src.Driver)
	}
}

// loadRuleSet loads rules from the configured paths, or from the Git
// rule repository when that is enabled. Explicit paths override both.
func (a *app) loadRuleSet(ctx context.Context, overridePaths []string) (*rules.Set, error) {
	loader := rules.NewLoader(a.logger)

	paths := overridePaths
	if len(paths) == 0 {
		if a.cfg.Rules.Git.Enabled {
			if err := a.ensureGitRules(ctx); err != nil {
				return nil, err
			}
			paths = []string{a.gitRepo.RulesPath()}
		} else {
			paths = a.cfg.Rules.Paths
		}
	}

	merged := &rules.Set{}
	for _, path := range paths {
		set, err := loader.LoadPath(path)
		if err != nil {
			return nil, cli.NewCommandError("load rules", err)
		}
		merged.Rules = append(merged.Rules, set.Rules...)
		merged.Tests = append(merged.Tests, set.Tests...)
	}
	return merged, nil
}

// ensureGitRules clones the rule repository on first use.
func (a *app) ensureGitRules(ctx context.Context) error {
	if a.gitRepo != nil {
		return nil
	}
	repo, err := rulesgit.NewRepository(&a.cfg.Rules.Git)
	if err != nil {
		return fmt.Errorf("git rule source: %w", err)
	}
	if err := repo.Clone(ctx); err != nil {
		return fmt.Errorf("git rule source: %w", err)
	}
	a.gitRepo = repo

	commit, err := repo.CurrentCommit()
	if err == nil {
		a.logger.Info("rules synced from git",
			"repository", a.cfg.Rules.Git.Repository,
			"commit", commit.SHA[:8],
		)
	}
	return nil
}

// saveRun records a finished run in the history store and logs pruning
// eligibility. A save failure never fails the run.
func (a *app) saveRun(ctx context.Context, run *engine.RunResult) {
	if a.store == nil {
		return
	}
	record, err := history.NewRecord(run)
	if err != nil {
		a.logger.Error("failed to build history record", "error", err)
		return
	}
	if err := a.store.Save(ctx, record); err != nil {
		a.logger.Error("failed to save run history", "error", err)
		return
	}
	a.logger.Debug("run recorded", "run_id", run.ID, "hash", record.Hash)
}

// notifyRun dispatches configured notifications for a finished run.
func (a *app) notifyRun(ctx context.Context, run *engine.RunResult) {
	if !a.cfg.Notifications.Enabled {
		return
	}

	minSeverity, err := rules.ParseSeverity(a.cfg.Notifications.MinSeverity)
	if err != nil {
		a.logger.Error("invalid notification severity", "error", err)
		return
	}

	var notifiers []notify.Notifier
	if a.cfg.Notifications.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(
			a.cfg.Notifications.Slack.WebhookURL,
			a.cfg.Notifications.Slack.Channel,
			a.cfg.Notifications.Slack.Timeout,
		))
	}
	if len(a.cfg.Notifications.Email.To) > 0 {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			Provider:       notify.EmailProvider(a.cfg.Notifications.Email.Provider),
			From:           a.cfg.Notifications.Email.From,
			To:             a.cfg.Notifications.Email.To,
			SendGridAPIKey: a.cfg.Notifications.Email.SendGrid.APIKey,
			SMTP: notify.SMTPSettings{
				Host:     a.cfg.Notifications.Email.SMTP.Host,
				Port:     a.cfg.Notifications.Email.SMTP.Port,
				Username: a.cfg.Notifications.Email.SMTP.Username,
				Password: a.cfg.Notifications.Email.SMTP.Password,
				StartTLS: a.cfg.Notifications.Email.SMTP.StartTLS == nil || *a.cfg.Notifications.Email.SMTP.StartTLS,
			},
		})
		if err != nil {
			a.logger.Error("invalid email notifier configuration", "error", err)
		} else {
			notifiers = append(notifiers, email)
		}
	}

	notify.NewDispatcher(minSeverity, a.logger, notifiers...).Dispatch(ctx, run)
}

// writeReports renders the run in the requested formats. "console"
// writes to stdout; file formats land in outputDir, named by run id.
func (a *app) writeReports(run *engine.RunResult, formats []string, outputDir string) error {
	expanded := make([]report.Format, 0, len(formats))
	for _, f := range formats {
		if f == "all" {
			expanded = append(expanded, report.FormatConsole)
			expanded = append(expanded, report.FileFormats...)
			continue
		}
		format, err := report.ParseFormat(f)
		if err != nil {
			return cli.NewConfigError("reports.formats", err.Error())
		}
		expanded = append(expanded, format)
	}

	for _, format := range expanded {
		if err := a.writeReport(run, format, outputDir); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) writeReport(run *engine.RunResult, format report.Format, outputDir string) error {
	renderer := a.renderer(format)

	if format == report.FormatConsole {
		return renderer.Render(run, os.Stdout)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("run-%s.%s", run.ID, format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := renderer.Render(run, f); err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}
	a.logger.Info("report written", "format", string(format), "path", path)
	return nil
}

func (a *app) renderer(format report.Format) report.Renderer {
	reports := a.cfg.Reports
	switch format {
	case report.FormatJSON:
		return report.NewJSONRenderer(reports.JSONPretty == nil || *reports.JSONPretty)
	case report.FormatCSV:
		return report.NewCSVRenderer(reports.CSVIncludeHeader == nil || *reports.CSVIncludeHeader)
	case report.FormatHTML:
		return report.NewHTMLRenderer(reports.HTMLTitle, reports.ConsoleMaxRows)
	default:
		return report.NewConsoleRenderer(reports.ConsoleMaxRows, false)
	}
}

// exitCodeFor maps a run outcome to the process exit status: 0 clean,
// 1 violations, 2 rule errors, 3 both.
func exitCodeFor(run *engine.RunResult) int {
	code := 0
	if run.HasViolations() {
		code |= 1
	}
	if run.HasErrors() {
		code |= 2
	}
	return code
}

// pruner builds the history pruner from config, or nil when history or
// retention is disabled.
func (a *app) pruner() *history.Pruner {
	if a.store == nil {
		return nil
	}
	retention := a.cfg.History.Retention
	if retention.Days == 0 && retention.MaxRecords == 0 {
		return nil
	}
	return history.NewPruner(a.store, history.PrunerConfig{
		RetentionDays: retention.Days,
		MaxRecords:    retention.MaxRecords,
	}, a.logger)
}

// shutdownContext returns a context for cleanup work after the main
// context is cancelled.
func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

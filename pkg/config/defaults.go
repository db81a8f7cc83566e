package config

import "time"

// Default values for configuration fields.
const (
	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"

	// Engine defaults
	DefaultEngineWorkers       = 4
	DefaultEngineRuleTimeout   = 30 * time.Second
	DefaultEngineMaxViolations = 1000

	// Rules defaults
	DefaultRulesPath       = "./rules"
	DefaultGitBranch       = "main"
	DefaultGitAuthType     = "none"
	DefaultGitPollEnabled  = true
	DefaultGitPollInterval = 5 * time.Minute
	DefaultGitPollTimeout  = 30 * time.Second
	DefaultGitCloneDepth   = 1
	DefaultGitLocalPath    = "data/rules-git"

	// Sources defaults
	DefaultDataDir = "./data"

	// History defaults
	DefaultHistoryEnabled      = true
	DefaultHistoryPath         = "data/history.db"
	DefaultHistoryBusyTimeout  = 5 * time.Second
	DefaultRetentionDays       = 90
	DefaultRetentionSchedule   = "0 3 * * *"
	DefaultRetentionMaxRecords = int64(0)

	// Reports defaults
	DefaultReportsOutputDir      = "./reports"
	DefaultReportsFormat         = "console"
	DefaultReportsJSONPretty     = true
	DefaultReportsCSVHeader      = true
	DefaultReportsHTMLTitle      = "Vigil Compliance Report"
	DefaultReportsConsoleMaxRows = 10

	// Notifications defaults
	DefaultMinSeverity   = "HIGH"
	DefaultSlackTimeout  = 10 * time.Second
	DefaultEmailProvider = "smtp"
	DefaultSMTPPort      = 587
	DefaultSMTPStartTLS  = true

	// Schedule defaults
	DefaultScheduleSpec = "0 6 * * *"

	// Telemetry defaults
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "vigil"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingInsecure      = true
	DefaultTracingServiceName   = "vigil"
)

// DefaultConfig returns a configuration with every field at its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values, so it is idempotent and
// safe to call multiple times. Boolean fields that default to true are
// pointers in the YAML shape; nil means unset and is filled here.
func ApplyDefaults(cfg *Config) {
	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	// Engine defaults
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = DefaultEngineWorkers
	}
	if cfg.Engine.RuleTimeout == 0 {
		cfg.Engine.RuleTimeout = DefaultEngineRuleTimeout
	}
	if cfg.Engine.MaxViolationsPerRule == 0 {
		cfg.Engine.MaxViolationsPerRule = DefaultEngineMaxViolations
	}

	// Rules defaults
	if len(cfg.Rules.Paths) == 0 {
		cfg.Rules.Paths = []string{DefaultRulesPath}
	}
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultGitBranch
	}
	if cfg.Rules.Git.Auth.Type == "" {
		cfg.Rules.Git.Auth.Type = DefaultGitAuthType
	}
	if cfg.Rules.Git.Poll.Enabled == nil {
		cfg.Rules.Git.Poll.Enabled = boolPtr(DefaultGitPollEnabled)
	}
	if cfg.Rules.Git.Poll.Interval == 0 {
		cfg.Rules.Git.Poll.Interval = DefaultGitPollInterval
	}
	if cfg.Rules.Git.Poll.Timeout == 0 {
		cfg.Rules.Git.Poll.Timeout = DefaultGitPollTimeout
	}
	if cfg.Rules.Git.Clone.Depth == 0 {
		cfg.Rules.Git.Clone.Depth = DefaultGitCloneDepth
	}
	if cfg.Rules.Git.Clone.LocalPath == "" {
		cfg.Rules.Git.Clone.LocalPath = DefaultGitLocalPath
	}

	// Sources defaults
	if cfg.Sources.DataDir == "" {
		cfg.Sources.DataDir = DefaultDataDir
	}

	// History defaults
	if cfg.History.Enabled == nil {
		cfg.History.Enabled = boolPtr(DefaultHistoryEnabled)
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.BusyTimeout == 0 {
		cfg.History.BusyTimeout = DefaultHistoryBusyTimeout
	}
	if cfg.History.Retention.Days == 0 {
		cfg.History.Retention.Days = DefaultRetentionDays
	}
	if cfg.History.Retention.PruneSchedule == "" {
		cfg.History.Retention.PruneSchedule = DefaultRetentionSchedule
	}

	// Reports defaults
	if cfg.Reports.OutputDir == "" {
		cfg.Reports.OutputDir = DefaultReportsOutputDir
	}
	if len(cfg.Reports.Formats) == 0 {
		cfg.Reports.Formats = []string{DefaultReportsFormat}
	}
	if cfg.Reports.JSONPretty == nil {
		cfg.Reports.JSONPretty = boolPtr(DefaultReportsJSONPretty)
	}
	if cfg.Reports.CSVIncludeHeader == nil {
		cfg.Reports.CSVIncludeHeader = boolPtr(DefaultReportsCSVHeader)
	}
	if cfg.Reports.HTMLTitle == "" {
		cfg.Reports.HTMLTitle = DefaultReportsHTMLTitle
	}
	if cfg.Reports.ConsoleMaxRows == 0 {
		cfg.Reports.ConsoleMaxRows = DefaultReportsConsoleMaxRows
	}

	// Notifications defaults
	if cfg.Notifications.MinSeverity == "" {
		cfg.Notifications.MinSeverity = DefaultMinSeverity
	}
	if cfg.Notifications.Slack.Timeout == 0 {
		cfg.Notifications.Slack.Timeout = DefaultSlackTimeout
	}
	if cfg.Notifications.Email.Provider == "" {
		cfg.Notifications.Email.Provider = DefaultEmailProvider
	}
	if cfg.Notifications.Email.SMTP.Port == 0 {
		cfg.Notifications.Email.SMTP.Port = DefaultSMTPPort
	}
	if cfg.Notifications.Email.SMTP.StartTLS == nil {
		cfg.Notifications.Email.SMTP.StartTLS = boolPtr(DefaultSMTPStartTLS)
	}

	// Schedule defaults
	if cfg.Schedule.Spec == "" {
		cfg.Schedule.Spec = DefaultScheduleSpec
	}

	// Telemetry defaults
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Insecure == nil {
		cfg.Telemetry.Tracing.Insecure = boolPtr(DefaultTracingInsecure)
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func boolPtr(v bool) *bool { return &v }

package config

import "time"

// Config is the root configuration structure for vigil. It contains all
// configuration sections for the engine, rule loading, data sources,
// run history, reports, notifications, scheduling, and telemetry.
type Config struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Engine contains configuration for rule evaluation including worker
	// count, per-rule timeout, and the violation list cap.
	Engine EngineConfig `yaml:"engine"`

	// Rules contains configuration for rule loading including local
	// directories and the optional Git rule source.
	Rules RulesConfig `yaml:"rules"`

	// Sources contains configuration for data source resolution including
	// the data directory and named sources.
	Sources SourcesConfig `yaml:"sources"`

	// History contains configuration for the run history store.
	History HistoryConfig `yaml:"history"`

	// Reports contains configuration for report rendering.
	Reports ReportsConfig `yaml:"reports"`

	// Notifications contains configuration for Slack and email alerts.
	Notifications NotificationsConfig `yaml:"notifications"`

	// Schedule contains configuration for periodic scans.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry contains configuration for metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "text", "json"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// EngineConfig contains configuration for the rule evaluation engine.
type EngineConfig struct {
	// Workers is the maximum number of rules evaluated concurrently.
	// Default: 4
	Workers int `yaml:"workers"`

	// RuleTimeout is the maximum duration a single rule may spend
	// resolving its source and scanning rows.
	// Default: 30s
	RuleTimeout time.Duration `yaml:"rule_timeout"`

	// MaxViolationsPerRule caps how many violation records are retained
	// per rule. Counting is always exact; only the stored list is capped.
	// 0 keeps counts only.
	// Default: 1000
	MaxViolationsPerRule int `yaml:"max_violations_per_rule"`
}

// RulesConfig contains configuration for rule loading.
type RulesConfig struct {
	// Paths lists the directories and files rules are loaded from.
	// Default: ["./rules"]
	Paths []string `yaml:"paths"`

	// Git contains the optional Git rule source configuration.
	Git GitRulesConfig `yaml:"git"`
}

// GitRulesConfig configures Git-based rule loading.
type GitRulesConfig struct {
	// Enabled determines if rules are pulled from a Git repository.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository URL (HTTPS or SSH).
	// Example: "https://github.com/company/compliance-rules.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository to the rule files.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// Poll configures change detection.
	Poll GitPollConfig `yaml:"poll"`

	// Clone configures repository cloning.
	Clone GitCloneConfig `yaml:"clone"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. Supports secret references
	// ("env://GIT_TOKEN", "file:///etc/vigil/git-token").
	// Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys. Supports secret references.
	// Optional, leave empty if the key is not encrypted.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// GitPollConfig configures change detection for the Git rule source.
type GitPollConfig struct {
	// Enabled determines if polling is active. When false, rules are
	// pulled once at startup.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Interval between polls.
	// Default: 5m
	Interval time.Duration `yaml:"interval"`

	// Timeout for Git operations.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// GitCloneConfig configures repository cloning.
type GitCloneConfig struct {
	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// LocalPath where the repository is cloned.
	// Default: "data/rules-git"
	LocalPath string `yaml:"local_path"`

	// CleanOnStart removes the local clone before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`
}

// SourcesConfig contains configuration for data source resolution.
type SourcesConfig struct {
	// DataDir is the directory relative file references are resolved
	// against.
	// Default: "./data"
	DataDir string `yaml:"data_dir"`

	// Named maps source names to explicit source configurations. A
	// rule's data_source reference is checked against these names before
	// falling back to file resolution.
	Named map[string]NamedSourceConfig `yaml:"named"`
}

// NamedSourceConfig describes one configured data source.
type NamedSourceConfig struct {
	// Driver selects the source type.
	// Options: "csv", "json", "sqlite", "postgres"
	Driver string `yaml:"driver"`

	// Path is the file path for csv, json, and sqlite drivers.
	Path string `yaml:"path"`

	// DSN is the connection string for the postgres driver. Supports
	// secret references ("env://DATABASE_URL").
	DSN string `yaml:"dsn"`

	// Table is the table scanned by sqlite and postgres drivers.
	// Exactly one of Table and Query must be set for those drivers.
	Table string `yaml:"table"`

	// Query is a read-only SELECT executed instead of a table scan.
	Query string `yaml:"query"`
}

// HistoryConfig contains configuration for the run history store.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the file path for the history database.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains history retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain run records. Records older
	// than this are eligible for pruning. 0 keeps records forever.
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduled pruning, used
	// while the scheduler is running.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of run records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// ReportsConfig contains configuration for report rendering.
type ReportsConfig struct {
	// OutputDir is the directory file reports are written to.
	// Default: "./reports"
	OutputDir string `yaml:"output_dir"`

	// Formats lists the report formats produced by default.
	// Options: "console", "json", "csv", "html", "all"
	// Default: ["console"]
	Formats []string `yaml:"formats"`

	// JSONPretty enables indented JSON reports.
	// Default: true
	JSONPretty *bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV reports.
	// Default: true
	CSVIncludeHeader *bool `yaml:"csv_include_header"`

	// HTMLTitle is the title of HTML reports.
	// Default: "Vigil Compliance Report"
	HTMLTitle string `yaml:"html_title"`

	// ConsoleMaxRows caps the violations listed per rule on the console.
	// Default: 10
	ConsoleMaxRows int `yaml:"console_max_rows"`
}

// NotificationsConfig contains configuration for alerting on failed runs.
type NotificationsConfig struct {
	// Enabled controls whether notifications are sent.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// MinSeverity is the lowest rule severity that triggers a
	// notification.
	// Options: "LOW", "MEDIUM", "HIGH", "CRITICAL"
	// Default: "HIGH"
	MinSeverity string `yaml:"min_severity"`

	// Slack contains Slack webhook configuration.
	Slack SlackConfig `yaml:"slack"`

	// Email contains email notifier configuration.
	Email EmailConfig `yaml:"email"`
}

// SlackConfig contains Slack incoming-webhook configuration.
type SlackConfig struct {
	// WebhookURL is the Slack incoming webhook. Supports secret
	// references ("env://SLACK_WEBHOOK_URL").
	WebhookURL string `yaml:"webhook_url"`

	// Channel optionally overrides the webhook's default channel.
	Channel string `yaml:"channel"`

	// Timeout bounds the webhook POST.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// EmailConfig contains email notifier configuration.
type EmailConfig struct {
	// Provider selects the delivery mechanism.
	// Options: "smtp", "sendgrid"
	// Default: "smtp"
	Provider string `yaml:"provider"`

	// From is the sender address.
	From string `yaml:"from"`

	// To lists the recipient addresses.
	To []string `yaml:"to"`

	// SendGrid contains SendGrid-specific configuration.
	SendGrid SendGridConfig `yaml:"sendgrid"`

	// SMTP contains SMTP-specific configuration.
	SMTP SMTPConfig `yaml:"smtp"`
}

// SendGridConfig contains SendGrid-specific configuration.
type SendGridConfig struct {
	// APIKey authenticates against the SendGrid API. Supports secret
	// references ("env://SENDGRID_API_KEY").
	APIKey string `yaml:"api_key"`
}

// SMTPConfig contains SMTP-specific configuration.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host"`

	// Port is the SMTP server port.
	// Default: 587
	Port int `yaml:"port"`

	// Username for SMTP authentication. Empty disables authentication.
	Username string `yaml:"username"`

	// Password for SMTP authentication. Supports secret references.
	Password string `yaml:"password"`

	// StartTLS upgrades the connection before authenticating.
	// Default: true
	StartTLS *bool `yaml:"starttls"`
}

// ScheduleConfig contains configuration for periodic scans.
type ScheduleConfig struct {
	// Spec is the cron expression for scheduled scans. The shorthands
	// "daily" and "weekly" are accepted.
	// Default: "0 6 * * *" (daily at 6 AM)
	Spec string `yaml:"spec"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the admin server exposes metrics while
	// scheduling or watching.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the admin server listens on.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "vigil"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// SampleRatio is the fraction of runs to trace (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure *bool `yaml:"insecure"`

	// ServiceName is the service name attached to spans.
	// Default: "vigil"
	ServiceName string `yaml:"service_name"`
}

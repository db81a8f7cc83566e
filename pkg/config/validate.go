package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g. "engine.workers").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access
// to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors
// are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateSources(&cfg.Sources)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateReports(&cfg.Reports)...)
	errs = append(errs, validateNotifications(&cfg.Notifications)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateLogging validates logging configuration.
func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Level != "" && !validLevels[strings.ToLower(cfg.Level)] {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q: must be debug, info, warn or error", cfg.Level),
		})
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if cfg.Format != "" && !validFormats[strings.ToLower(cfg.Format)] {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q: must be text or json", cfg.Format),
		})
	}

	return errs
}

// validateEngine validates engine configuration.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.workers",
			Message: "workers must be positive",
		})
	}
	if cfg.RuleTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.rule_timeout",
			Message: "rule timeout must be positive",
		})
	}
	if cfg.MaxViolationsPerRule < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.max_violations_per_rule",
			Message: "max violations per rule must be non-negative",
		})
	}

	return errs
}

// validateRules validates rule loading configuration.
func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	if len(cfg.Paths) == 0 && !cfg.Git.Enabled {
		errs = append(errs, FieldError{
			Field:   "rules.paths",
			Message: "at least one rule path is required when the git source is disabled",
		})
	}

	if !cfg.Git.Enabled {
		return errs
	}

	if cfg.Git.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.repository",
			Message: "repository is required when the git source is enabled",
		})
	}

	validAuth := map[string]bool{"none": true, "token": true, "ssh": true}
	if !validAuth[cfg.Git.Auth.Type] {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be none, token or ssh", cfg.Git.Auth.Type),
		})
	}
	if cfg.Git.Auth.Type == "token" && cfg.Git.Auth.Token == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.token",
			Message: "token is required when auth type is 'token'",
		})
	}
	if cfg.Git.Auth.Type == "ssh" && cfg.Git.Auth.SSHKeyPath == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.ssh_key_path",
			Message: "ssh key path is required when auth type is 'ssh'",
		})
	}

	if cfg.Git.Poll.Enabled != nil && *cfg.Git.Poll.Enabled && cfg.Git.Poll.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "rules.git.poll.interval",
			Message: "poll interval must be positive",
		})
	}
	if cfg.Git.Clone.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.git.clone.depth",
			Message: "clone depth must be non-negative",
		})
	}

	return errs
}

// validateSources validates data source configuration.
func validateSources(cfg *SourcesConfig) []FieldError {
	var errs []FieldError

	validDrivers := map[string]bool{"csv": true, "json": true, "sqlite": true, "postgres": true}
	for name, src := range cfg.Named {
		prefix := fmt.Sprintf("sources.named.%s", name)

		if !validDrivers[src.Driver] {
			errs = append(errs, FieldError{
				Field:   prefix + ".driver",
				Message: fmt.Sprintf("invalid driver %q: must be csv, json, sqlite or postgres", src.Driver),
			})
			continue
		}

		switch src.Driver {
		case "csv", "json":
			if src.Path == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".path",
					Message: "path is required for file-backed sources",
				})
			}
			if src.Table != "" || src.Query != "" {
				errs = append(errs, FieldError{
					Field:   prefix,
					Message: "table and query apply only to sqlite and postgres sources",
				})
			}
		case "sqlite":
			if src.Path == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".path",
					Message: "path is required for sqlite sources",
				})
			}
			errs = append(errs, validateTableQuery(prefix, src)...)
		case "postgres":
			if src.DSN == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".dsn",
					Message: "dsn is required for postgres sources",
				})
			}
			errs = append(errs, validateTableQuery(prefix, src)...)
		}
	}

	return errs
}

// validateTableQuery checks that exactly one of table and query is set.
func validateTableQuery(prefix string, src NamedSourceConfig) []FieldError {
	if src.Table == "" && src.Query == "" {
		return []FieldError{{
			Field:   prefix,
			Message: "either table or query is required",
		}}
	}
	if src.Table != "" && src.Query != "" {
		return []FieldError{{
			Field:   prefix,
			Message: "table and query are mutually exclusive",
		}}
	}
	return nil
}

// validateHistory validates history store configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled != nil && !*cfg.Enabled {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "history.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.max_records",
			Message: "max records must be non-negative",
		})
	}

	return errs
}

// validateReports validates report configuration.
func validateReports(cfg *ReportsConfig) []FieldError {
	var errs []FieldError

	validFormats := map[string]bool{"console": true, "json": true, "csv": true, "html": true, "all": true}
	needsOutputDir := false
	for _, f := range cfg.Formats {
		if !validFormats[f] {
			errs = append(errs, FieldError{
				Field:   "reports.formats",
				Message: fmt.Sprintf("invalid format %q: must be console, json, csv, html or all", f),
			})
			continue
		}
		if f != "console" {
			needsOutputDir = true
		}
	}

	if needsOutputDir && cfg.OutputDir == "" {
		errs = append(errs, FieldError{
			Field:   "reports.output_dir",
			Message: "output directory is required for file report formats",
		})
	}
	if cfg.ConsoleMaxRows < 0 {
		errs = append(errs, FieldError{
			Field:   "reports.console_max_rows",
			Message: "console max rows must be non-negative",
		})
	}

	return errs
}

// validateNotifications validates notification configuration.
func validateNotifications(cfg *NotificationsConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	validSeverities := map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true, "CRITICAL": true}
	if !validSeverities[strings.ToUpper(cfg.MinSeverity)] {
		errs = append(errs, FieldError{
			Field:   "notifications.min_severity",
			Message: fmt.Sprintf("invalid severity %q: must be LOW, MEDIUM, HIGH or CRITICAL", cfg.MinSeverity),
		})
	}

	hasSlack := cfg.Slack.WebhookURL != ""
	hasEmail := len(cfg.Email.To) > 0
	if !hasSlack && !hasEmail {
		errs = append(errs, FieldError{
			Field:   "notifications",
			Message: "at least one channel (slack webhook or email recipients) is required",
		})
	}

	if hasEmail {
		validProviders := map[string]bool{"smtp": true, "sendgrid": true}
		if !validProviders[cfg.Email.Provider] {
			errs = append(errs, FieldError{
				Field:   "notifications.email.provider",
				Message: fmt.Sprintf("invalid provider %q: must be smtp or sendgrid", cfg.Email.Provider),
			})
		}
		if cfg.Email.From == "" {
			errs = append(errs, FieldError{
				Field:   "notifications.email.from",
				Message: "sender address is required",
			})
		}
		switch cfg.Email.Provider {
		case "sendgrid":
			if cfg.Email.SendGrid.APIKey == "" {
				errs = append(errs, FieldError{
					Field:   "notifications.email.sendgrid.api_key",
					Message: "api key is required for the sendgrid provider",
				})
			}
		case "smtp":
			if cfg.Email.SMTP.Host == "" {
				errs = append(errs, FieldError{
					Field:   "notifications.email.smtp.host",
					Message: "host is required for the smtp provider",
				})
			}
			if cfg.Email.SMTP.Port < 1 || cfg.Email.SMTP.Port > 65535 {
				errs = append(errs, FieldError{
					Field:   "notifications.email.smtp.port",
					Message: "port must be between 1 and 65535",
				})
			}
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with '/'",
			})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path. It
// applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables;
// use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// VIGIL_SECTION_FIELD (e.g. VIGIL_ENGINE_WORKERS) and always take
// precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format VIGIL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Logging overrides
	if val := os.Getenv("VIGIL_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("VIGIL_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Engine overrides
	if val := os.Getenv("VIGIL_ENGINE_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.Workers = i
		}
	}
	if val := os.Getenv("VIGIL_ENGINE_RULE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.RuleTimeout = d
		}
	}
	if val := os.Getenv("VIGIL_ENGINE_MAX_VIOLATIONS_PER_RULE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxViolationsPerRule = i
		}
	}

	// Rules overrides
	if val := os.Getenv("VIGIL_RULES_PATHS"); val != "" {
		cfg.Rules.Paths = splitList(val)
	}
	if val := os.Getenv("VIGIL_RULES_GIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Git.Enabled = b
		}
	}
	if val := os.Getenv("VIGIL_RULES_GIT_REPOSITORY"); val != "" {
		cfg.Rules.Git.Repository = val
	}
	if val := os.Getenv("VIGIL_RULES_GIT_BRANCH"); val != "" {
		cfg.Rules.Git.Branch = val
	}
	if val := os.Getenv("VIGIL_RULES_GIT_PATH"); val != "" {
		cfg.Rules.Git.Path = val
	}
	if val := os.Getenv("VIGIL_RULES_GIT_TOKEN"); val != "" {
		cfg.Rules.Git.Auth.Type = "token"
		cfg.Rules.Git.Auth.Token = val
	}

	// Sources overrides
	if val := os.Getenv("VIGIL_SOURCES_DATA_DIR"); val != "" {
		cfg.Sources.DataDir = val
	}

	// History overrides
	if val := os.Getenv("VIGIL_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = boolPtr(b)
		}
	}
	if val := os.Getenv("VIGIL_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}
	if val := os.Getenv("VIGIL_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.Retention.Days = i
		}
	}

	// Reports overrides
	if val := os.Getenv("VIGIL_REPORTS_OUTPUT_DIR"); val != "" {
		cfg.Reports.OutputDir = val
	}
	if val := os.Getenv("VIGIL_REPORTS_FORMATS"); val != "" {
		cfg.Reports.Formats = splitList(val)
	}

	// Notifications overrides
	if val := os.Getenv("VIGIL_NOTIFICATIONS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Notifications.Enabled = b
		}
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_MIN_SEVERITY"); val != "" {
		cfg.Notifications.MinSeverity = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_SLACK_WEBHOOK_URL"); val != "" {
		cfg.Notifications.Slack.WebhookURL = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_PROVIDER"); val != "" {
		cfg.Notifications.Email.Provider = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_FROM"); val != "" {
		cfg.Notifications.Email.From = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_TO"); val != "" {
		cfg.Notifications.Email.To = splitList(val)
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_SENDGRID_API_KEY"); val != "" {
		cfg.Notifications.Email.SendGrid.APIKey = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_SMTP_HOST"); val != "" {
		cfg.Notifications.Email.SMTP.Host = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_SMTP_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Notifications.Email.SMTP.Port = i
		}
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_SMTP_USERNAME"); val != "" {
		cfg.Notifications.Email.SMTP.Username = val
	}
	if val := os.Getenv("VIGIL_NOTIFICATIONS_EMAIL_SMTP_PASSWORD"); val != "" {
		cfg.Notifications.Email.SMTP.Password = val
	}

	// Schedule overrides
	if val := os.Getenv("VIGIL_SCHEDULE_SPEC"); val != "" {
		cfg.Schedule.Spec = val
	}

	// Telemetry overrides
	if val := os.Getenv("VIGIL_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VIGIL_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("VIGIL_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("VIGIL_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("VIGIL_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// splitList splits a comma-separated environment value, trimming
// whitespace and dropping empty entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package config provides configuration management for vigil.
//
// This package handles loading and validating configuration from a YAML
// file (conventionally vigil.yaml) with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.Load("vigil.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadWithEnvOverrides("vigil.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention VIGIL_SECTION_FIELD.
// For example:
//
//   - VIGIL_ENGINE_WORKERS overrides engine.workers
//   - VIGIL_RULES_PATHS overrides rules.paths (comma-separated)
//   - VIGIL_NOTIFICATIONS_SLACK_WEBHOOK_URL overrides notifications.slack.webhook_url
//
// Environment variables always take precedence over file values.
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Secret References
//
// Secret-bearing fields (webhook URLs, API keys, passwords, DSNs) accept
// references instead of literal values:
//
//	notifications:
//	  slack:
//	    webhook_url: "env://SLACK_WEBHOOK_URL"
//	  email:
//	    smtp:
//	      password: "file:///etc/vigil/smtp-password"
//
// References are dereferenced by ResolveSecrets after loading; plain
// values pass through unchanged.
//
// # Validation
//
// All configuration is validated during loading. Validation errors
// include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - engine.workers: workers must be positive
//	  - notifications.email.smtp.host: host is required for the smtp provider
//
// # Example Configuration
//
// A minimal configuration file:
//
//	engine:
//	  workers: 8
//
//	rules:
//	  paths: ["./rules"]
//
//	sources:
//	  data_dir: "./data"
//
//	reports:
//	  formats: ["console", "json"]
package config

package config

import (
	"context"
	"fmt"
)

// SecretResolver dereferences secret references in configuration values.
// Plain values pass through unchanged. Implemented by secrets.Manager.
type SecretResolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// ResolveSecrets dereferences every secret-bearing field in the
// configuration in place. It is called after loading, before the
// configuration is handed to components. A failed reference is an error;
// plain values never are.
func ResolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) error {
	fields := []struct {
		path  string
		value *string
	}{
		{"rules.git.auth.token", &cfg.Rules.Git.Auth.Token},
		{"rules.git.auth.ssh_key_passphrase", &cfg.Rules.Git.Auth.SSHKeyPassphrase},
		{"notifications.slack.webhook_url", &cfg.Notifications.Slack.WebhookURL},
		{"notifications.email.sendgrid.api_key", &cfg.Notifications.Email.SendGrid.APIKey},
		{"notifications.email.smtp.username", &cfg.Notifications.Email.SMTP.Username},
		{"notifications.email.smtp.password", &cfg.Notifications.Email.SMTP.Password},
	}

	for _, f := range fields {
		if *f.value == "" {
			continue
		}
		resolved, err := resolver.Resolve(ctx, *f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		*f.value = resolved
	}

	for name, src := range cfg.Sources.Named {
		if src.DSN == "" {
			continue
		}
		resolved, err := resolver.Resolve(ctx, src.DSN)
		if err != nil {
			return fmt.Errorf("sources.named.%s.dsn: %w", name, err)
		}
		src.DSN = resolved
		cfg.Sources.Named[name] = src
	}

	return nil
}

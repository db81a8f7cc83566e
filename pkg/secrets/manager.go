package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Manager dispatches secret references to providers by scheme.
//
// Only registered schemes are treated as references; any other value,
// including values containing "://" with an unknown scheme, passes
// through unchanged.
type Manager struct {
	providers map[string]Provider
}

// NewManager creates a manager over the given providers. A later
// provider with the same scheme replaces an earlier one.
func NewManager(providers ...Provider) *Manager {
	m := &Manager{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		m.providers[p.Scheme()] = p
	}
	return m
}

// Default returns a manager with the env and file providers.
func Default() *Manager {
	return NewManager(NewEnvProvider(), NewFileProvider())
}

// Resolve dereferences a single configuration value. Plain values and
// unknown schemes are returned unchanged; a reference whose provider
// fails is an error.
func (m *Manager) Resolve(ctx context.Context, value string) (string, error) {
	scheme, key, ok := strings.Cut(value, "://")
	if !ok {
		return value, nil
	}

	provider, ok := m.providers[scheme]
	if !ok {
		// Connection strings carry schemes too; leave them alone.
		return value, nil
	}

	resolved, err := provider.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("secret reference %s://%s: %w", scheme, key, err)
	}

	slog.Debug("resolved secret reference",
		"scheme", scheme,
		"key", redactKey(key),
	)

	return resolved, nil
}

// redactKey returns a redacted form of a reference key for logging.
func redactKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return key[:2] + "..." + key[len(key)-2:]
}

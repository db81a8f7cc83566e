package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves env://NAME references from environment
// variables.
type EnvProvider struct{}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Scheme returns the provider scheme.
func (p *EnvProvider) Scheme() string {
	return "env"
}

// Get reads the named environment variable. An unset or empty variable
// is an error: a reference asserts the secret exists, and an empty
// credential failing loudly beats an empty credential failing later.
func (p *EnvProvider) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return value, nil
}

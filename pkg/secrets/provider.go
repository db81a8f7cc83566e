// Package secrets resolves secret references in configuration values.
//
// A reference is a value of the form scheme://key where the scheme
// names a registered provider, e.g. env://GIT_TOKEN or
// file:///etc/vigil/slack-webhook. Values whose scheme is not
// registered pass through unchanged, so connection strings such as
// postgres://user:pw@host/db are never mistaken for references.
package secrets

import "context"

// Provider retrieves secret values for a single reference scheme.
//
// Implementations include environment variables and files. Providers
// are registered with a Manager, which dispatches references by
// scheme.
type Provider interface {
	// Scheme returns the reference scheme this provider serves
	// (e.g. "env" for env://NAME references).
	Scheme() string

	// Get retrieves the secret for the given key, the part of the
	// reference after "://". Returns an error if the secret does not
	// exist or cannot be read.
	Get(ctx context.Context, key string) (string, error)
}

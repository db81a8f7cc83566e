package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileProvider resolves file:///path references by reading the file at
// that path. This supports Kubernetes-style mounted secrets where each
// secret is a separate file.
//
// File permissions are validated: secrets must be 0600 or 0400 so a
// world-readable credential fails loudly instead of silently working.
type FileProvider struct{}

// NewFileProvider creates a provider backed by the filesystem.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// Scheme returns the provider scheme.
func (p *FileProvider) Scheme() string {
	return "file"
}

// Get reads the secret file at the given path. The reference
// file:///etc/vigil/token yields the key "/etc/vigil/token".
// Surrounding whitespace is trimmed; mounted secrets usually carry a
// trailing newline.
func (p *FileProvider) Get(_ context.Context, key string) (string, error) {
	info, err := os.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", key)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", key)
	}

	mode := info.Mode().Perm()
	if mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", key, mode)
	}

	// #nosec G304 - the path comes from the operator's own configuration
	data, err := os.ReadFile(key)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

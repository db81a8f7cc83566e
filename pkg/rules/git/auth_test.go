package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"corvid-labs/vigil/pkg/config"
)

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.GitAuthConfig
		wantType string
		wantErr  bool
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name:     "explicit none",
			cfg:      &config.GitAuthConfig{Type: "none"},
			wantType: "none",
		},
		{
			name:     "empty type defaults to none",
			cfg:      &config.GitAuthConfig{},
			wantType: "none",
		},
		{
			name:     "token",
			cfg:      &config.GitAuthConfig{Type: "token", Token: "ghp_example"},
			wantType: "token",
		},
		{
			name:    "token without value",
			cfg:     &config.GitAuthConfig{Type: "token"},
			wantErr: true,
		},
		{
			name:     "ssh",
			cfg:      &config.GitAuthConfig{Type: "ssh", SSHKeyPath: "/home/user/.ssh/id_ed25519"},
			wantType: "ssh",
		},
		{
			name:    "ssh without key path",
			cfg:     &config.GitAuthConfig{Type: "ssh"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     &config.GitAuthConfig{Type: "kerberos"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewAuthProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAuthProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if provider.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", provider.Type(), tt.wantType)
			}
		})
	}
}

func TestTokenAuthGetAuth(t *testing.T) {
	auth, err := NewTokenAuth("ghp_example").GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	basic, ok := auth.(*http.BasicAuth)
	if !ok {
		t.Fatalf("GetAuth() returned %T, want *http.BasicAuth", auth)
	}
	if basic.Password != "ghp_example" {
		t.Errorf("password = %q, want the token", basic.Password)
	}

	if _, err := NewTokenAuth("").GetAuth(); err == nil {
		t.Error("GetAuth() with empty token returned nil error")
	}
}

func TestSSHAuthKeyPermissions(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_test")
	if err := os.WriteFile(keyPath, []byte("not a real key"), 0644); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}

	if _, err := NewSSHAuth(keyPath, "").GetAuth(); err == nil {
		t.Error("GetAuth() accepted a world-readable key file")
	}
}

func TestSSHAuthMissingKey(t *testing.T) {
	if _, err := NewSSHAuth(filepath.Join(t.TempDir(), "missing"), "").GetAuth(); err == nil {
		t.Error("GetAuth() with missing key file returned nil error")
	}
}

func TestNoAuthGetAuth(t *testing.T) {
	auth, err := NewNoAuth().GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	if auth != nil {
		t.Errorf("GetAuth() = %v, want nil", auth)
	}
}

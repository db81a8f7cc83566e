package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileProvider_Get(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhook-url")
	if err := os.WriteFile(path, []byte("https://hooks.example.com/T123\n"), 0600); err != nil {
		t.Fatal(err)
	}

	provider := NewFileProvider()

	value, err := provider.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Trailing newline must be trimmed.
	if value != "https://hooks.example.com/T123" {
		t.Errorf("expected trimmed value, got %q", value)
	}
}

func TestFileProvider_Get_NotFound(t *testing.T) {
	provider := NewFileProvider()

	_, err := provider.Get(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestFileProvider_Get_Directory(t *testing.T) {
	provider := NewFileProvider()

	_, err := provider.Get(context.Background(), t.TempDir())
	if err == nil {
		t.Error("expected error for directory path, got nil")
	}
}

func TestFileProvider_Permissions(t *testing.T) {
	tests := []struct {
		name        string
		permissions os.FileMode
		shouldWork  bool
	}{
		{"0600 permissions", 0600, true},
		{"0400 permissions", 0400, true},
		{"0644 permissions", 0644, false},
		{"0666 permissions", 0666, false},
		{"0700 permissions", 0700, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "secret")
			if err := os.WriteFile(path, []byte("value"), tt.permissions); err != nil {
				t.Fatal(err)
			}

			_, err := NewFileProvider().Get(context.Background(), path)

			if tt.shouldWork && err != nil {
				t.Errorf("expected success with permissions %o, got error: %v", tt.permissions, err)
			}
			if !tt.shouldWork {
				if err == nil {
					t.Fatalf("expected error with permissions %o, got success", tt.permissions)
				}
				if !strings.Contains(err.Error(), "insecure permissions") {
					t.Errorf("expected permissions error, got: %v", err)
				}
			}
		})
	}
}

func TestFileProvider_Scheme(t *testing.T) {
	if got := NewFileProvider().Scheme(); got != "file" {
		t.Errorf("expected scheme %q, got %q", "file", got)
	}
}

package secrets

import (
	"context"
	"testing"
)

func TestEnvProvider_Get(t *testing.T) {
	t.Setenv("VIGIL_TEST_SECRET", "s3cret-value")

	provider := NewEnvProvider()

	value, err := provider.Get(context.Background(), "VIGIL_TEST_SECRET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "s3cret-value" {
		t.Errorf("expected value %q, got %q", "s3cret-value", value)
	}
}

func TestEnvProvider_Get_NotSet(t *testing.T) {
	provider := NewEnvProvider()

	_, err := provider.Get(context.Background(), "VIGIL_TEST_SECRET_MISSING")
	if err == nil {
		t.Error("expected error for unset variable, got nil")
	}
}

func TestEnvProvider_Get_EmptyValue(t *testing.T) {
	t.Setenv("VIGIL_TEST_SECRET_EMPTY", "")

	provider := NewEnvProvider()

	_, err := provider.Get(context.Background(), "VIGIL_TEST_SECRET_EMPTY")
	if err == nil {
		t.Error("expected error for empty variable, got nil")
	}
}

func TestEnvProvider_Scheme(t *testing.T) {
	if got := NewEnvProvider().Scheme(); got != "env" {
		t.Errorf("expected scheme %q, got %q", "env", got)
	}
}

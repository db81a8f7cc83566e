package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantErr   bool
	}{
		{name: "debug", level: "debug", wantDebug: true},
		{name: "info", level: "info", wantDebug: false},
		{name: "empty defaults to info", level: "", wantDebug: false},
		{name: "uppercase", level: "WARN", wantDebug: false},
		{name: "invalid", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Config{Level: tt.level, Writer: &buf})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%q) error = nil, want error", tt.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.level, err)
			}
			logger.Debug("probe")
			if got := strings.Contains(buf.String(), "probe"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello", slog.String("rule_id", "r1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["rule_id"] != "r1" {
		t.Errorf("rule_id = %v, want r1", entry["rule_id"])
	}

	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("New(xml) error = nil, want error")
	}
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "token", key: "git_token", want: Redacted},
		{name: "password", key: "smtp_password", want: Redacted},
		{name: "dsn", key: "dsn", want: Redacted},
		{name: "webhook", key: "webhook_url", want: Redacted},
		{name: "api key", key: "sendgrid_api_key", want: Redacted},
		{name: "plain field", key: "rule_id", want: "hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Config{Format: "json", Writer: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			logger.Info("msg", slog.String(tt.key, "hunter2"))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if entry[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, entry[tt.key], tt.want)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), logger.With(slog.String("component", "test")))
	FromContext(ctx).Info("via context")

	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("output missing component attribute: %q", buf.String())
	}

	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("FromContext without logger should return the default")
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/rules"
)

func testRun(results ...*engine.RuleResult) *engine.RunResult {
	run := &engine.RunResult{
		ID:         "run-123",
		StartedAt:  time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 1, 6, 0, 12, 0, time.UTC),
		Results:    results,
	}
	for _, res := range results {
		run.Summary.TotalRules++
		switch res.Status {
		case engine.StatusPass:
			run.Summary.PassedRules++
		case engine.StatusFail:
			run.Summary.FailedRules++
		case engine.StatusError:
			run.Summary.ErroredRules++
		case engine.StatusSkipped:
			run.Summary.SkippedRules++
		}
		run.Summary.Violations += res.ViolationCount
	}
	return run
}

func passResult(id string) *engine.RuleResult {
	return &engine.RuleResult{RuleID: id, RuleName: id, Severity: rules.SeverityHigh, Status: engine.StatusPass}
}

func failResult(id string, sev rules.Severity, violations int) *engine.RuleResult {
	return &engine.RuleResult{RuleID: id, RuleName: id, Severity: sev, Status: engine.StatusFail, ViolationCount: violations}
}

func errorResult(id string, sev rules.Severity) *engine.RuleResult {
	return &engine.RuleResult{RuleID: id, RuleName: id, Severity: sev, Status: engine.StatusError, Err: "source unavailable"}
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name        string
		minSeverity rules.Severity
		run         *engine.RunResult
		want        bool
	}{
		{
			name:        "all passed",
			minSeverity: rules.SeverityLow,
			run:         testRun(passResult("a"), passResult("b")),
			want:        false,
		},
		{
			name:        "failure at minimum severity",
			minSeverity: rules.SeverityHigh,
			run:         testRun(failResult("a", rules.SeverityHigh, 3)),
			want:        true,
		},
		{
			name:        "failure below minimum severity",
			minSeverity: rules.SeverityHigh,
			run:         testRun(failResult("a", rules.SeverityLow, 3)),
			want:        false,
		},
		{
			name:        "error always notifies",
			minSeverity: rules.SeverityCritical,
			run:         testRun(errorResult("a", rules.SeverityLow)),
			want:        true,
		},
		{
			name:        "empty run",
			minSeverity: rules.SeverityLow,
			run:         testRun(),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.minSeverity, discardLogger())
			if got := d.ShouldNotify(tt.run); got != tt.want {
				t.Errorf("ShouldNotify() = %v, want %v", got, tt.want)
			}
		})
	}
}

type recordingNotifier struct {
	name   string
	calls  int
	result error
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(ctx context.Context, run *engine.RunResult) error {
	r.calls++
	return r.result
}

func TestDispatchSwallowsNotifierErrors(t *testing.T) {
	failing := &recordingNotifier{name: "failing", result: errors.New("webhook down")}
	working := &recordingNotifier{name: "working"}

	d := NewDispatcher(rules.SeverityLow, discardLogger(), failing, working)
	d.Dispatch(context.Background(), testRun(failResult("a", rules.SeverityHigh, 1)))

	if failing.calls != 1 {
		t.Errorf("failing notifier called %d times, want 1", failing.calls)
	}
	if working.calls != 1 {
		t.Errorf("working notifier called %d times, want 1", working.calls)
	}
}

func TestDispatchSkipsCleanRun(t *testing.T) {
	n := &recordingNotifier{name: "n"}
	d := NewDispatcher(rules.SeverityLow, discardLogger(), n)
	d.Dispatch(context.Background(), testRun(passResult("a")))

	if n.calls != 0 {
		t.Errorf("notifier called %d times on a clean run, want 0", n.calls)
	}
}

func TestSlackNotify(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("payload is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "#compliance", 5*time.Second)
	run := testRun(failResult("orders-complete", rules.SeverityHigh, 7), errorResult("vendor-audit", rules.SeverityMedium))

	if err := n.Notify(context.Background(), run); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	blocks, ok := payload["blocks"].([]any)
	if !ok || len(blocks) == 0 {
		t.Fatalf("payload has no blocks: %#v", payload)
	}
	raw, _ := json.Marshal(payload)
	for _, want := range []string{"orders-complete", "vendor-audit", "7"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("payload missing %q:\n%s", want, raw)
		}
	}
}

func TestSlackNotifyNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "", 5*time.Second)
	err := n.Notify(context.Background(), testRun(failResult("a", rules.SeverityHigh, 1)))
	if err == nil {
		t.Fatal("Notify() returned nil for a 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q does not mention the status code", err)
	}
}

func TestRenderEmailBodies(t *testing.T) {
	run := testRun(
		failResult("orders-complete", rules.SeverityHigh, 7),
		errorResult("vendor-audit", rules.SeverityMedium),
		passResult("clean-rule"),
	)

	html, text, err := renderEmailBodies(run)
	if err != nil {
		t.Fatalf("renderEmailBodies() error = %v", err)
	}

	for _, want := range []string{"orders-complete", "vendor-audit", "source unavailable", "run-123"} {
		if !strings.Contains(html, want) {
			t.Errorf("html body missing %q", want)
		}
		if !strings.Contains(text, want) {
			t.Errorf("text body missing %q", want)
		}
	}
	if strings.Contains(html, "clean-rule") {
		t.Error("html body lists a passing rule")
	}
	if !strings.Contains(html, "<table") {
		t.Error("html body has no table markup")
	}
}

func TestRenderEmailBodiesCapsRules(t *testing.T) {
	var results []*engine.RuleResult
	for i := 0; i < emailMaxRules+5; i++ {
		results = append(results, failResult(ruleName(i), rules.SeverityHigh, 1))
	}
	run := testRun(results...)

	_, text, err := renderEmailBodies(run)
	if err != nil {
		t.Fatalf("renderEmailBodies() error = %v", err)
	}
	if !strings.Contains(text, "5 more failed rules") {
		t.Errorf("text body missing overflow note:\n%s", text)
	}
}

func ruleName(i int) string {
	return "rule-" + string(rune('a'+i))
}

func TestNewEmailNotifierValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EmailConfig
		wantErr bool
	}{
		{
			name: "valid smtp",
			cfg: EmailConfig{
				Provider: ProviderSMTP,
				From:     "vigil@example.com",
				To:       []string{"ops@example.com"},
				SMTP:     SMTPSettings{Host: "mail.example.com", Port: 587},
			},
		},
		{
			name: "valid sendgrid",
			cfg: EmailConfig{
				Provider:       ProviderSendGrid,
				From:           "vigil@example.com",
				To:             []string{"ops@example.com"},
				SendGridAPIKey: "SG.test",
			},
		},
		{
			name:    "missing from",
			cfg:     EmailConfig{Provider: ProviderSMTP, To: []string{"ops@example.com"}, SMTP: SMTPSettings{Host: "h"}},
			wantErr: true,
		},
		{
			name:    "missing recipients",
			cfg:     EmailConfig{Provider: ProviderSMTP, From: "vigil@example.com", SMTP: SMTPSettings{Host: "h"}},
			wantErr: true,
		},
		{
			name:    "sendgrid without key",
			cfg:     EmailConfig{Provider: ProviderSendGrid, From: "vigil@example.com", To: []string{"ops@example.com"}},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     EmailConfig{Provider: "carrier-pigeon", From: "vigil@example.com", To: []string{"ops@example.com"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmailNotifier(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEmailNotifier() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

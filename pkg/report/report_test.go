package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/rules"
	"corvid-labs/vigil/pkg/vex/ast"
)

func sampleRun() *engine.RunResult {
	started := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return &engine.RunResult{
		ID:         "run-42",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Results: []*engine.RuleResult{
			{
				RuleID: "mfa-required", RuleName: "MFA required for admins",
				Severity: rules.SeverityCritical, Status: engine.StatusFail,
				TotalRows: 4, Considered: 2, Passed: 1, ViolationCount: 1,
				Violations: []engine.Violation{
					{
						RowIndex: 2,
						Fields: map[string]ast.Value{
							"mfa":  ast.BoolValue(false),
							"user": ast.StringValue("t.marlowe"),
						},
					},
				},
			},
			{
				RuleID: "age-limit", RuleName: "Retention under limit",
				Severity: rules.SeverityLow, Status: engine.StatusPass,
				TotalRows: 4, Considered: 4, Passed: 4,
			},
			{
				RuleID: "broken", RuleName: "Broken rule",
				Severity: rules.SeverityMedium, Status: engine.StatusError,
				Err: `cannot resolve data source "missing.csv": file not found`,
			},
		},
		Summary: engine.Summary{
			TotalRules: 3, PassedRules: 1, FailedRules: 1, ErroredRules: 1,
			Violations: 1,
		},
	}
}

func TestConsoleRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleRenderer(10, true)
	if err := r.Render(sampleRun(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-42",
		"MFA required for admins",
		"CRITICAL",
		"row 2: mfa=False, user=\"t.marlowe\"",
		"cannot resolve data source",
		"Violations: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleRenderCapsViolations(t *testing.T) {
	run := sampleRun()
	res := run.Results[0]
	res.Violations = nil
	for i := 0; i < 5; i++ {
		res.Violations = append(res.Violations, engine.Violation{RowIndex: i})
	}
	res.ViolationCount = 8 // 3 past even the stored list

	var buf bytes.Buffer
	if err := NewConsoleRenderer(2, true).Render(run, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Count(out, "row ") != 2 {
		t.Errorf("listed %d rows, want 2:\n%s", strings.Count(out, "row "), out)
	}
	if !strings.Contains(out, "and 6 more") {
		t.Errorf("output missing overflow note:\n%s", out)
	}
}

func TestJSONRenderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONRenderer(true).Render(sampleRun(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded engine.RunResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.ID != "run-42" || decoded.Summary.Violations != 1 {
		t.Errorf("decoded = %+v, want the source run", decoded.Summary)
	}
}

func TestJSONRenderDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	r := NewJSONRenderer(false)
	if err := r.Render(sampleRun(), &a); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := r.Render(sampleRun(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical runs rendered different JSON")
	}
}

func TestCSVRender(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVRenderer(true).Render(sampleRun(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 violation", len(rows))
	}

	wantHeader := []string{"rule_id", "rule_name", "severity", "row_index", "cause", "mfa", "user"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	got := rows[1]
	if got[0] != "mfa-required" || got[3] != "2" || got[5] != "False" || got[6] != "t.marlowe" {
		t.Errorf("violation row = %v", got)
	}
}

func TestHTMLRender(t *testing.T) {
	var buf bytes.Buffer
	if err := NewHTMLRenderer("Quarterly Audit", 10).Render(sampleRun(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<title>Quarterly Audit</title>",
		"MFA required for admins",
		"t.marlowe",
		"CRITICAL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
}

func TestHTMLRenderEscapes(t *testing.T) {
	run := sampleRun()
	run.Results[0].Violations[0].Fields["user"] = ast.StringValue(`<script>alert(1)</script>`)

	var buf bytes.Buffer
	if err := NewHTMLRenderer("", 10).Render(run, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Error("row data rendered without escaping")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "console", want: FormatConsole},
		{in: "json", want: FormatJSON},
		{in: "csv", want: FormatCSV},
		{in: "html", want: FormatHTML},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

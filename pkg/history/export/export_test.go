package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/history"
)

func sampleRecords() []*history.Record {
	started := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return []*history.Record{
		{
			ID:         "run-1",
			StartedAt:  started,
			FinishedAt: started.Add(2 * time.Second),
			RecordedAt: started.Add(3 * time.Second),
			Summary:    engine.Summary{TotalRules: 3, PassedRules: 2, FailedRules: 1, Violations: 4},
			Results:    json.RawMessage(`[{"rule_id":"r1","status":"FAIL"}]`),
			Hash:       "deadbeef",
		},
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["id"] != "run-1" {
		t.Errorf("decoded = %v, want one record with id run-1", decoded)
	}
	if !strings.Contains(buf.String(), "\n") {
		t.Error("pretty output should be indented")
	}
}

func TestJSONExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(nil, &buf); err != nil {
		t.Fatalf("Export(nil) error = %v", err)
	}
	if got := buf.String(); got != "[]" {
		t.Errorf("Export(nil) = %q, want []", got)
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 record", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("header starts with %q, want id", rows[0][0])
	}
	got := rows[1]
	if got[0] != "run-1" || got[4] != "3" || got[9] != "4" || got[11] != "deadbeef" {
		t.Errorf("record row = %v", got)
	}
}

func TestCSVExportNoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("header written despite IncludeHeader=false")
	}
}

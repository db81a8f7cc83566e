package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"corvid-labs/vigil/pkg/history"
)

// CSVExporter writes run records as CSV, one row per run. Per-rule
// results stay in the JSON export; CSV carries the summary columns that
// spreadsheets actually chart.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var csvHeader = []string{
	"id", "started_at", "finished_at", "recorded_at",
	"total_rules", "passed_rules", "failed_rules", "errored_rules", "skipped_rules",
	"violations", "cancelled", "hash",
}

// Export writes records to w.
func (e *CSVExporter) Export(records []*history.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return history.NewExportError("csv", err)
		}
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.StartedAt.UTC().Format(time.RFC3339),
			rec.FinishedAt.UTC().Format(time.RFC3339),
			rec.RecordedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(rec.Summary.TotalRules),
			strconv.Itoa(rec.Summary.PassedRules),
			strconv.Itoa(rec.Summary.FailedRules),
			strconv.Itoa(rec.Summary.ErroredRules),
			strconv.Itoa(rec.Summary.SkippedRules),
			strconv.Itoa(rec.Summary.Violations),
			strconv.FormatBool(rec.Cancelled),
			rec.Hash,
		}
		if err := writer.Write(row); err != nil {
			return history.NewExportError("csv", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return history.NewExportError("csv", err)
	}
	return nil
}

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/vex/ast"
)

// CSVRenderer emits one row per violation, with the union of snapshot
// field names as trailing columns in sorted order. Rules without
// violations contribute no rows.
type CSVRenderer struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVRenderer creates a CSV renderer.
func NewCSVRenderer(includeHeader bool) *CSVRenderer {
	return &CSVRenderer{IncludeHeader: includeHeader}
}

// Render writes the CSV report.
func (r *CSVRenderer) Render(run *engine.RunResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	fields := violationFields(run)

	if r.IncludeHeader {
		header := append([]string{"rule_id", "rule_name", "severity", "row_index", "cause"}, fields...)
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, res := range run.Results {
		for _, v := range res.Violations {
			row := []string{
				res.RuleID,
				res.RuleName,
				string(res.Severity),
				strconv.Itoa(v.RowIndex),
				v.Cause,
			}
			for _, name := range fields {
				row = append(row, cellValue(v.Fields, name))
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// cellValue renders a snapshot value for a CSV cell. Strings go in raw,
// without the expression-language quoting; fields the violation did not
// capture stay empty rather than reading as null.
func cellValue(fields map[string]ast.Value, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	if v.Kind == ast.KindString {
		return v.Str
	}
	return v.String()
}

package report

import (
	"fmt"
	"io"
	"sort"

	"corvid-labs/vigil/pkg/engine"
)

// Renderer turns a run result into one output format. Renderers are
// stateless and safe to reuse across runs.
type Renderer interface {
	// Render writes the report for run to w.
	Render(run *engine.RunResult, w io.Writer) error
}

// Format names a report output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
)

// FileFormats lists the formats written as files by "--format all". The
// console format renders to stdout and is excluded.
var FileFormats = []Format{FormatJSON, FormatCSV, FormatHTML}

// ParseFormat validates a format name, accepting "all" as a marker the
// command layer expands.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatConsole, FormatJSON, FormatCSV, FormatHTML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected console, json, csv, html or all)", s)
	}
}

// Extension returns the file extension for a format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// violationFields returns the sorted union of snapshot field names over
// every violation in the run. Using the union keeps tabular output
// rectangular even when rules reference different fields.
func violationFields(run *engine.RunResult) []string {
	seen := make(map[string]struct{})
	for _, res := range run.Results {
		for _, v := range res.Violations {
			for name := range v.Fields {
				seen[name] = struct{}{}
			}
		}
	}
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

package export

import (
	"encoding/json"
	"io"

	"corvid-labs/vigil/pkg/history"
)

// JSONExporter writes run records as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w. An empty input writes an empty array, so
// output is always valid JSON.
func (e *JSONExporter) Export(records []*history.Record, w io.Writer) error {
	if records == nil {
		records = []*history.Record{}
	}

	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return history.NewExportError("json", err)
	}

	if _, err := w.Write(data); err != nil {
		return history.NewExportError("json", err)
	}
	return nil
}

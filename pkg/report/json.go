package report

import (
	"encoding/json"
	"io"

	"corvid-labs/vigil/pkg/engine"
)

// JSONRenderer emits the run result as JSON. The schema is the engine's
// result model directly, so findings serialize identically whether they
// come from a live run or the history store.
type JSONRenderer struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONRenderer creates a JSON renderer.
func NewJSONRenderer(pretty bool) *JSONRenderer {
	return &JSONRenderer{Pretty: pretty}
}

// Render writes the JSON report.
func (r *JSONRenderer) Render(run *engine.RunResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	if r.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(run)
}

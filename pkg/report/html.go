package report

import (
	_ "embed"
	"html/template"
	"io"
	"sort"

	"corvid-labs/vigil/pkg/engine"
)

//go:embed template.html
var htmlTemplate string

// reportTmpl is parsed once at init; a template error is a build defect.
var reportTmpl = template.Must(template.New("report").Parse(htmlTemplate))

// HTMLRenderer emits a self-contained HTML report: summary cards and a
// per-rule section with a capped violation table.
type HTMLRenderer struct {
	// Title is the report heading.
	Title string

	// MaxRows caps the violation rows rendered per rule. 0 disables the
	// cap; the stored violation list is already bounded by the engine.
	MaxRows int
}

// NewHTMLRenderer creates an HTML renderer.
func NewHTMLRenderer(title string, maxRows int) *HTMLRenderer {
	if title == "" {
		title = "Vigil Compliance Report"
	}
	return &HTMLRenderer{Title: title, MaxRows: maxRows}
}

type htmlRule struct {
	Result     *engine.RuleResult
	Fields     []string
	Violations []htmlViolation
	Hidden     int
}

type htmlViolation struct {
	RowIndex int
	Cells    []string
	Cause    string
}

type htmlData struct {
	Title string
	Run   *engine.RunResult
	Rules []htmlRule
}

// Render writes the HTML report.
func (r *HTMLRenderer) Render(run *engine.RunResult, w io.Writer) error {
	data := htmlData{Title: r.Title, Run: run}

	for _, res := range run.Results {
		rule := htmlRule{Result: res}

		// Per-rule column set: the fields this rule's condition reads.
		seen := make(map[string]struct{})
		for _, v := range res.Violations {
			for name := range v.Fields {
				seen[name] = struct{}{}
			}
		}
		for name := range seen {
			rule.Fields = append(rule.Fields, name)
		}
		sort.Strings(rule.Fields)

		for i, v := range res.Violations {
			if r.MaxRows > 0 && i >= r.MaxRows {
				break
			}
			hv := htmlViolation{RowIndex: v.RowIndex, Cause: v.Cause}
			for _, name := range rule.Fields {
				hv.Cells = append(hv.Cells, cellValue(v.Fields, name))
			}
			rule.Violations = append(rule.Violations, hv)
		}
		rule.Hidden = res.ViolationCount - len(rule.Violations)

		data.Rules = append(data.Rules, rule)
	}

	return reportTmpl.Execute(w, data)
}

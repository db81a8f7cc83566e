package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"corvid-labs/vigil/pkg/engine"
)

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a2e;">
<h2>Vigil compliance run {{if .Run.HasErrors}}errored{{else}}found violations{{end}}</h2>
<p>
  Run <code>{{.Run.ID}}</code> finished at {{.Run.FinishedAt.Format "2006-01-02 15:04:05 MST"}}.
</p>
<table border="0" cellpadding="4">
  <tr><td>Rules</td><td>{{.Run.Summary.TotalRules}}</td></tr>
  <tr><td>Passed</td><td>{{.Run.Summary.PassedRules}}</td></tr>
  <tr><td>Failed</td><td>{{.Run.Summary.FailedRules}}</td></tr>
  <tr><td>Errored</td><td>{{.Run.Summary.ErroredRules}}</td></tr>
  <tr><td>Violations</td><td>{{.Run.Summary.Violations}}</td></tr>
</table>
{{if .Failed}}
<h3>Failed rules</h3>
<table border="1" cellpadding="6" style="border-collapse: collapse;">
  <tr><th>Rule</th><th>Severity</th><th>Status</th><th>Violations</th><th>Error</th></tr>
  {{range .Failed}}
  <tr>
    <td>{{.RuleName}}</td>
    <td>{{.Severity}}</td>
    <td>{{.Status}}</td>
    <td>{{.ViolationCount}}</td>
    <td>{{.Err}}</td>
  </tr>
  {{end}}
</table>
{{if .Overflow}}<p>... and {{.Overflow}} more failed rules not shown.</p>{{end}}
{{end}}
</body>
</html>
`

const emailTextTemplate = `Vigil compliance run {{if .Run.HasErrors}}errored{{else}}found violations{{end}}

Run {{.Run.ID}} finished at {{.Run.FinishedAt.Format "2006-01-02 15:04:05 MST"}}.

Rules:      {{.Run.Summary.TotalRules}}
Passed:     {{.Run.Summary.PassedRules}}
Failed:     {{.Run.Summary.FailedRules}}
Errored:    {{.Run.Summary.ErroredRules}}
Violations: {{.Run.Summary.Violations}}
{{if .Failed}}
Failed rules:
{{range .Failed}}  [{{.Severity}}] {{.RuleName}}: {{.Status}}, {{.ViolationCount}} violations{{if .Err}} ({{.Err}}){{end}}
{{end}}{{if .Overflow}}  ... and {{.Overflow}} more failed rules not shown.
{{end}}{{end}}`

var (
	emailHTML = htmltemplate.Must(htmltemplate.New("email").Parse(emailHTMLTemplate))
	emailText = texttemplate.Must(texttemplate.New("email").Parse(emailTextTemplate))
)

type emailData struct {
	Run      *engine.RunResult
	Failed   []*engine.RuleResult
	Overflow int
}

// renderEmailBodies produces the HTML and plaintext variants of the
// alert email for one run.
func renderEmailBodies(run *engine.RunResult) (html, text string, err error) {
	failed := failedRules(run, emailMaxRules)
	overflow := run.Summary.FailedRules + run.Summary.ErroredRules - len(failed)
	if overflow < 0 {
		overflow = 0
	}
	data := emailData{Run: run, Failed: failed, Overflow: overflow}

	var htmlBuf bytes.Buffer
	if err := emailHTML.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("execute html template: %w", err)
	}
	var textBuf bytes.Buffer
	if err := emailText.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

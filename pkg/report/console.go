package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/rules"
)

// ConsoleRenderer renders a run as a human-readable terminal report:
// a summary block, one line per rule, and a capped violation listing
// under each failed rule.
type ConsoleRenderer struct {
	// MaxRows caps the violations listed per rule. 0 lists none.
	MaxRows int

	// NoColor disables ANSI colors, for piped output.
	NoColor bool
}

// NewConsoleRenderer creates a console renderer.
func NewConsoleRenderer(maxRows int, noColor bool) *ConsoleRenderer {
	return &ConsoleRenderer{MaxRows: maxRows, NoColor: noColor}
}

var (
	statusColors = map[engine.RuleStatus]*color.Color{
		engine.StatusPass:    color.New(color.FgGreen),
		engine.StatusFail:    color.New(color.FgRed),
		engine.StatusError:   color.New(color.FgMagenta),
		engine.StatusSkipped: color.New(color.Faint),
	}

	severityColors = map[rules.Severity]*color.Color{
		rules.SeverityLow:      color.New(color.FgCyan),
		rules.SeverityMedium:   color.New(color.FgYellow),
		rules.SeverityHigh:     color.New(color.FgRed),
		rules.SeverityCritical: color.New(color.FgRed, color.Bold),
	}
)

// Render writes the console report.
func (r *ConsoleRenderer) Render(run *engine.RunResult, w io.Writer) error {
	paint := func(c *color.Color, s string) string {
		if r.NoColor || c == nil {
			return s
		}
		return c.Sprint(s)
	}

	s := run.Summary
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "Rules:      %d total, %s passed, %s failed, %s errored, %d skipped\n",
		s.TotalRules,
		paint(statusColors[engine.StatusPass], fmt.Sprintf("%d", s.PassedRules)),
		paint(statusColors[engine.StatusFail], fmt.Sprintf("%d", s.FailedRules)),
		paint(statusColors[engine.StatusError], fmt.Sprintf("%d", s.ErroredRules)),
		s.SkippedRules)
	fmt.Fprintf(w, "Violations: %d\n", s.Violations)
	if run.Cancelled {
		fmt.Fprintf(w, "%s\n", paint(statusColors[engine.StatusError], "Run was cancelled before all rules completed."))
	}
	fmt.Fprintln(w)

	for _, res := range run.Results {
		status := paint(statusColors[res.Status], fmt.Sprintf("%-7s", res.Status))
		severity := paint(severityColors[res.Severity], string(res.Severity))
		fmt.Fprintf(w, "%s %s [%s]\n", status, res.RuleName, severity)

		switch res.Status {
		case engine.StatusError:
			fmt.Fprintf(w, "        %s\n", res.Err)
		case engine.StatusFail:
			fmt.Fprintf(w, "        %d of %d rows violated (%.1f%% pass rate)\n",
				res.ViolationCount, res.Considered, res.PassRate())
			r.renderViolations(w, res)
		case engine.StatusPass:
			fmt.Fprintf(w, "        %d rows checked\n", res.Considered)
		}
	}

	return nil
}

// renderViolations lists a rule's violating rows up to the cap.
func (r *ConsoleRenderer) renderViolations(w io.Writer, res *engine.RuleResult) {
	shown := 0
	for _, v := range res.Violations {
		if shown >= r.MaxRows {
			break
		}
		names := make([]string, 0, len(v.Fields))
		for name := range v.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, v.Fields[name]))
		}
		line := fmt.Sprintf("row %d: %s", v.RowIndex, strings.Join(parts, ", "))
		if v.Cause != "" {
			line += fmt.Sprintf(" (%s)", v.Cause)
		}
		fmt.Fprintf(w, "          %s\n", line)
		shown++
	}
	if res.ViolationCount > shown {
		fmt.Fprintf(w, "          ... and %d more\n", res.ViolationCount-shown)
	}
}

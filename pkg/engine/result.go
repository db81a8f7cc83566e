package engine

import (
	"time"

	"corvid-labs/vigil/pkg/rules"
	"corvid-labs/vigil/pkg/vex/ast"
)

// RuleStatus classifies the outcome of evaluating one rule.
type RuleStatus string

const (
	// StatusPass means every considered row satisfied the condition.
	StatusPass RuleStatus = "PASS"

	// StatusFail means at least one considered row violated the condition.
	StatusFail RuleStatus = "FAIL"

	// StatusError means the rule itself could not be evaluated: it failed
	// to load, its data source did not resolve, or it timed out.
	StatusError RuleStatus = "ERROR"

	// StatusSkipped means the rule is disabled and was not evaluated.
	StatusSkipped RuleStatus = "SKIPPED"
)

// Violation records one row that failed a rule's condition.
type Violation struct {
	// RowIndex is the zero-based position of the row in source order,
	// before filtering, so it locates the row in the original data.
	RowIndex int `json:"row_index"`

	// Fields snapshots the values of the fields the condition references,
	// as the evaluator saw them. Fields absent from the row appear as
	// null. Fields the condition does not read are not captured.
	Fields map[string]ast.Value `json:"fields"`

	// Cause is set when the condition errored on this row rather than
	// evaluating to false. Inability to confirm compliance is itself a
	// finding, so such rows are violations, not passes.
	Cause string `json:"cause,omitempty"`
}

// RuleResult is the outcome of evaluating a single rule. Results are not
// modified once the run returns them.
type RuleResult struct {
	// RuleID, RuleName and Severity identify the rule. Severity passes
	// through from the definition unchanged.
	RuleID   string         `json:"rule_id"`
	RuleName string         `json:"rule_name"`
	Severity rules.Severity `json:"severity"`

	// Status summarizes the outcome.
	Status RuleStatus `json:"status"`

	// TotalRows is the number of rows the source produced.
	TotalRows int `json:"total_rows"`

	// Considered is the number of rows that passed the filter and were
	// checked against the condition. Considered = Passed + ViolationCount.
	Considered int `json:"considered"`

	// Passed is the number of considered rows that satisfied the condition.
	Passed int `json:"passed"`

	// ViolationCount is the exact number of violations, independent of
	// the cap applied to the Violations list.
	ViolationCount int `json:"violation_count"`

	// Violations lists violating rows in source order, capped at the
	// engine's MaxViolationsPerRule.
	Violations []Violation `json:"violations,omitempty"`

	// Err describes why the rule errored; empty for other statuses.
	Err string `json:"error,omitempty"`

	// Duration is how long the rule took to evaluate.
	Duration time.Duration `json:"duration"`
}

// PassRate returns the percentage of considered rows that satisfied the
// condition. A rule that considered no rows reports zero.
func (r *RuleResult) PassRate() float64 {
	if r.Considered == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Considered) * 100
}

// Summary aggregates a run's per-rule outcomes.
type Summary struct {
	// TotalRules is the number of rules in the run.
	TotalRules int `json:"total_rules"`

	// PassedRules, FailedRules, ErroredRules and SkippedRules count rules
	// by status. They sum to TotalRules.
	PassedRules  int `json:"passed_rules"`
	FailedRules  int `json:"failed_rules"`
	ErroredRules int `json:"errored_rules"`
	SkippedRules int `json:"skipped_rules"`

	// Violations is the total violation count across all rules.
	Violations int `json:"violations"`
}

// RunResult is the outcome of one engine run.
type RunResult struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Results holds one entry per rule, in definition order.
	Results []*RuleResult `json:"results"`

	// Summary aggregates the results.
	Summary Summary `json:"summary"`

	// Cancelled reports whether the run was cut short. Rules that never
	// started are recorded as errored.
	Cancelled bool `json:"cancelled,omitempty"`
}

// HasViolations reports whether any rule found violations.
func (r *RunResult) HasViolations() bool {
	return r.Summary.Violations > 0
}

// HasErrors reports whether any rule could not be evaluated.
func (r *RunResult) HasErrors() bool {
	return r.Summary.ErroredRules > 0
}

// summarize tallies per-rule outcomes into a Summary.
func summarize(results []*RuleResult) Summary {
	s := Summary{TotalRules: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.PassedRules++
		case StatusFail:
			s.FailedRules++
		case StatusError:
			s.ErroredRules++
		case StatusSkipped:
			s.SkippedRules++
		}
		s.Violations += r.ViolationCount
	}
	return s
}

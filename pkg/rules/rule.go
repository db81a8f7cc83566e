package rules

import (
	"fmt"
	"strings"
	"time"

	"corvid-labs/vigil/pkg/vex"
	"corvid-labs/vigil/pkg/vex/ast"
)

// Severity classifies how serious a rule violation is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank orders severities for minimum-severity filtering.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ParseSeverity converts a string to a Severity, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("invalid severity %q (expected LOW, MEDIUM, HIGH or CRITICAL)", s)
	}
	return sev, nil
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// String returns the severity name.
func (s Severity) String() string { return string(s) }

// Rule is a single compliance rule. Rules are immutable after load; the
// engine and reports only read them.
type Rule struct {
	// ID uniquely identifies the rule within a run.
	ID string

	// Name is the human-readable rule title.
	Name string

	// Description explains what the rule checks and why.
	Description string

	// Severity classifies violations of this rule. Default: MEDIUM.
	Severity Severity

	// Condition is the expression every considered row must satisfy.
	Condition string

	// Filter optionally narrows the rows the condition applies to.
	// Rows where the filter is not true are excluded from the rule's
	// denominator entirely.
	Filter string

	// DataSource is the opaque reference resolved by the engine's
	// datasource.Resolver (a file path, name, or sqlite ref).
	DataSource string

	// Enabled rules are evaluated; disabled rules are reported as
	// skipped. Default: true.
	Enabled bool

	// Tags label the rule for reporting (e.g. framework names).
	Tags []string

	// CondExpr is the parsed condition, nil when LoadErr is set.
	CondExpr ast.Expr

	// FilterExpr is the parsed filter, nil when the rule has none.
	FilterExpr ast.Expr

	// LoadErr records why the rule failed to load (structural problem
	// or expression parse error). A rule with LoadErr set is never
	// evaluated; the run reports it as that rule's failure.
	LoadErr error

	// SourceFile and Line locate the rule's definition for diagnostics.
	SourceFile string
	Line       int

	// CreatedAt is when the rule was loaded.
	CreatedAt time.Time
}

// Validate returns the structural problems with the rule definition, one
// message per problem. It does not re-check expression syntax; that is
// captured in LoadErr at load time.
func (r *Rule) Validate() []string {
	var errs []string
	if r.ID == "" {
		errs = append(errs, "rule id cannot be empty")
	}
	if r.Name == "" {
		errs = append(errs, "rule name cannot be empty")
	}
	if r.Condition == "" {
		errs = append(errs, "rule condition cannot be empty")
	}
	if r.DataSource == "" {
		errs = append(errs, "data source cannot be empty")
	}
	if r.Severity != "" {
		if _, ok := severityRank[r.Severity]; !ok {
			errs = append(errs, fmt.Sprintf("invalid severity %q", r.Severity))
		}
	}
	return errs
}

// ConditionFields returns the sorted field names the condition reads.
// These are the fields snapshotted into violation records.
func (r *Rule) ConditionFields() []string {
	if r.CondExpr == nil {
		return nil
	}
	return vex.Fields(r.CondExpr)
}

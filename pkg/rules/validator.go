package rules

import (
	"fmt"

	"corvid-labs/vigil/pkg/vex/ast"
)

// IssueLevel grades a validation finding.
type IssueLevel string

const (
	LevelError   IssueLevel = "error"
	LevelWarning IssueLevel = "warning"
)

// Issue is one validation finding against a loaded rule set.
type Issue struct {
	File    string     `json:"file,omitempty"`
	Line    int        `json:"line,omitempty"`
	RuleID  string     `json:"rule,omitempty"`
	Message string     `json:"message"`
	Level   IssueLevel `json:"level"`
}

// Result aggregates validation findings for a rule set.
type Result struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether the set has no error-level issues.
func (r *Result) Valid() bool {
	return r.ErrorCount() == 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Level == LevelError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	return len(r.Issues) - r.ErrorCount()
}

func (r *Result) addError(file string, line int, ruleID, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{
		File: file, Line: line, RuleID: ruleID,
		Message: fmt.Sprintf(format, args...),
		Level:   LevelError,
	})
}

func (r *Result) addWarning(file string, line int, ruleID, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{
		File: file, Line: line, RuleID: ruleID,
		Message: fmt.Sprintf(format, args...),
		Level:   LevelWarning,
	})
}

// Validate checks a loaded set beyond what loading already enforced:
// load failures are surfaced, rule ids must be unique, expressions must
// be able to produce a boolean, and inline tests must reference rules
// that exist.
func Validate(set *Set) *Result {
	result := &Result{}

	seen := make(map[string]*Rule)
	for _, rule := range set.Rules {
		if rule.LoadErr != nil {
			result.addError(rule.SourceFile, rule.Line, rule.ID, "%v", rule.LoadErr)
			continue
		}

		if prev, dup := seen[rule.ID]; dup {
			result.addError(rule.SourceFile, rule.Line, rule.ID,
				"duplicate rule id (first defined at %s:%d)", prev.SourceFile, prev.Line)
		} else {
			seen[rule.ID] = rule
		}

		for _, msg := range booleanShapeIssues(rule.CondExpr) {
			result.addError(rule.SourceFile, rule.Line, rule.ID, "condition %s", msg)
		}
		if rule.FilterExpr != nil {
			for _, msg := range booleanShapeIssues(rule.FilterExpr) {
				result.addError(rule.SourceFile, rule.Line, rule.ID, "filter %s", msg)
			}
		}

		if rule.Description == "" {
			result.addWarning(rule.SourceFile, rule.Line, rule.ID, "rule has no description")
		}
		if !rule.Enabled {
			result.addWarning(rule.SourceFile, rule.Line, rule.ID, "rule is disabled")
		}
	}

	for _, test := range set.Tests {
		for _, msg := range test.Validate() {
			result.addError(test.SourceFile, 0, test.Rule, "%s", msg)
		}
		if test.Rule != "" {
			if _, ok := seen[test.Rule]; !ok {
				result.addError(test.SourceFile, 0, test.Rule,
					"test %q references unknown rule %q", test.Name, test.Rule)
			}
		}
	}

	return result
}

// booleanShapeIssues reports subexpressions that can never yield a
// boolean. Field references pass: their type depends on the data. A bare
// non-boolean literal cannot.
func booleanShapeIssues(e ast.Expr) []string {
	switch node := e.(type) {
	case *ast.Literal:
		if node.Value.Kind != ast.KindBool {
			return []string{fmt.Sprintf("is not a boolean expression: literal %s", node.Value)}
		}
		return nil
	case *ast.FieldRef:
		return nil
	case *ast.Unary:
		return booleanShapeIssues(node.Operand)
	case *ast.Binary:
		if node.Op == ast.OpAnd || node.Op == ast.OpOr {
			issues := booleanShapeIssues(node.Left)
			return append(issues, booleanShapeIssues(node.Right)...)
		}
		// Comparisons yield booleans.
		return nil
	default:
		return nil
	}
}

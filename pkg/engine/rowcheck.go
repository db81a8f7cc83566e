package engine

import (
	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/rules"
)

// RowOutcome classifies how a single row fares against a rule.
type RowOutcome string

const (
	// RowPass: the row is considered and satisfies the condition.
	RowPass RowOutcome = "pass"

	// RowViolation: the row is considered and fails the condition.
	RowViolation RowOutcome = "violation"

	// RowExcluded: the filter leaves the row out of the denominator.
	RowExcluded RowOutcome = "excluded"

	// RowError: evaluating the condition on the row errors. The row
	// still counts as a violation in a full run.
	RowError RowOutcome = "error"
)

// CheckRow evaluates one row against a rule, classifying the outcome
// the same way a full run would. detail carries the evaluation error
// message when the outcome is RowError.
func CheckRow(rule *rules.Rule, row datasource.Row) (outcome RowOutcome, detail string) {
	if rule.FilterExpr != nil {
		included, err := Evaluate(rule.FilterExpr, row)
		if err != nil || !included {
			return RowExcluded, ""
		}
	}

	pass, err := Evaluate(rule.CondExpr, row)
	if err != nil {
		return RowError, err.Error()
	}
	if pass {
		return RowPass, ""
	}
	return RowViolation, ""
}

package engine

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNoRules indicates a run was requested with no rules.
	ErrNoRules = errors.New("no rules to evaluate")
)

// EvalError indicates an expression could not be evaluated against a row:
// an ordering comparison between incomparable values, a non-boolean operand
// where a boolean is required, or a missing field used outside a null test.
type EvalError struct {
	Expr    string
	Message string
}

// Error returns the error message.
func (e *EvalError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("cannot evaluate %s: %s", e.Expr, e.Message)
	}
	return e.Message
}

// newEvalError builds an EvalError for the given source fragment.
func newEvalError(expr string, format string, args ...interface{}) *EvalError {
	return &EvalError{Expr: expr, Message: fmt.Sprintf(format, args...)}
}

// TimeoutError indicates a rule evaluation exceeded its timeout.
type TimeoutError struct {
	RuleID  string
	Timeout time.Duration
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rule %s: evaluation timeout after %v", e.RuleID, e.Timeout)
}

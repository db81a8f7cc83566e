package rules

import "fmt"

// Expectation is the outcome an inline rule test asserts.
type Expectation string

const (
	// ExpectPass: the row satisfies the condition.
	ExpectPass Expectation = "pass"

	// ExpectViolation: the row is considered and fails the condition.
	ExpectViolation Expectation = "violation"

	// ExpectExcluded: the filter leaves the row out of the denominator.
	ExpectExcluded Expectation = "excluded"

	// ExpectError: evaluating the condition on the row errors.
	ExpectError Expectation = "error"
)

// Valid reports whether the expectation is one of the known outcomes.
func (e Expectation) Valid() bool {
	switch e {
	case ExpectPass, ExpectViolation, ExpectExcluded, ExpectError:
		return true
	}
	return false
}

// Test is an inline rule test: one synthetic row and the outcome the
// rule must produce for it. Tests live next to the rules they exercise,
// under a file-level `tests:` list, and run with `vigil test`.
type Test struct {
	// Name describes the scenario.
	Name string

	// Rule is the id of the rule under test.
	Rule string

	// Row holds the synthetic record as plain YAML values. It is
	// converted to a typed row with the same rules as the JSON readers
	// when the test runs.
	Row map[string]interface{}

	// Want is the asserted outcome.
	Want Expectation

	// SourceFile locates the test definition for diagnostics.
	SourceFile string
}

// Validate returns the structural problems with the test definition.
func (t *Test) Validate() []string {
	var errs []string
	if t.Name == "" {
		errs = append(errs, "test name cannot be empty")
	}
	if t.Rule == "" {
		errs = append(errs, "test must name a rule")
	}
	if !t.Want.Valid() {
		errs = append(errs, fmt.Sprintf("invalid want %q (expected pass, violation, excluded or error)", string(t.Want)))
	}
	return errs
}

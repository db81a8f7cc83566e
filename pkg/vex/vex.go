package vex

import (
	"corvid-labs/vigil/pkg/vex/ast"
	"corvid-labs/vigil/pkg/vex/parser"
)

// ParseError is the error type returned for malformed expressions.
type ParseError = parser.ParseError

// Parse parses an expression string into an immutable tree.
// Parsing is deterministic: the same input always yields a structurally
// identical tree. On failure the returned error is a *ParseError.
func Parse(input string) (ast.Expr, error) {
	return parser.Parse(input)
}

// MustParse parses an expression and panics on failure. For tests and
// compiled-in expressions only.
func MustParse(input string) ast.Expr {
	expr, err := parser.Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

// Fields returns the sorted, de-duplicated field names an expression
// references.
func Fields(expr ast.Expr) []string {
	return ast.Fields(expr)
}

// Package vex is the entry point for the vigil expression language used in
// rule condition and filter strings.
//
// The language is a closed boolean grammar: field references, literals
// (True, False, Null, quoted strings, numbers), comparisons (==, !=, <,
// <=, >, >=, in), and the connectives and, or, not. There are no function
// calls, no arithmetic, and no host-language escape hatches; rules may
// come from less-trusted authors and evaluation must stay a safe,
// deterministic boundary.
//
// Typical use:
//
//	expr, err := vex.Parse(`role == 'admin' and mfa == True`)
//
// Subpackages: ast (tree and value types), lexer, parser.
package vex

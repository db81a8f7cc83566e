// Package parser builds vex expression trees by recursive descent.
//
// Operator precedence, lowest to highest: or, and, not, comparison
// (==, !=, <, <=, >, >=, in), primary. Comparisons are non-chaining;
// a == b == c is a parse error. The right operand of in must be a literal
// sequence, written [x, y] or (x, y).
//
// Any lexical or syntactic violation fails the whole expression with a
// ParseError carrying the byte offset of the offending token and a
// description of what was expected. There are no partial results.
package parser

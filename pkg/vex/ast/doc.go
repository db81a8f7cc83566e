// Package ast defines the abstract syntax tree for vex expressions and the
// typed value domain they evaluate over.
//
// Trees are immutable once built by the parser. A rule owns the trees parsed
// from its condition and filter strings and shares them read-only across
// every row evaluation, including concurrent evaluations of other rules.
//
// Values form a tagged union over the five kinds row data can carry:
// booleans, numbers, strings, calendar dates, and null (which also stands
// for a missing field). Every value has exactly one kind; comparisons
// between kinds are the evaluator's concern, not the tree's.
package ast

package ast

import (
	"sort"
	"strings"
)

// Op is an operator in a vex expression, spelled as it appears in source.
type Op string

const (
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpIn  Op = "in"
)

// IsComparison reports whether the operator compares two operands
// (as opposed to the boolean connectives and/or/not).
func (o Op) IsComparison() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn:
		return true
	}
	return false
}

// IsOrdering reports whether the operator requires an ordering between its
// operands.
func (o Op) IsOrdering() bool {
	switch o {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Expr is a node in a parsed expression tree.
type Expr interface {
	// String renders the node in canonical source form. Two structurally
	// identical trees render identically.
	String() string

	exprNode()
}

// Literal is a constant value appearing in the expression source.
type Literal struct {
	Value Value
}

func (l *Literal) exprNode() {}

func (l *Literal) String() string { return l.Value.String() }

// IsNull reports whether the literal is the Null literal. The evaluator
// treats comparisons against it as explicit null tests.
func (l *Literal) IsNull() bool { return l.Value.IsNull() }

// FieldRef references a row field by name, matched case-sensitively.
type FieldRef struct {
	Name string
}

func (f *FieldRef) exprNode() {}

func (f *FieldRef) String() string { return f.Name }

// Unary is a prefix operator application. The only unary operator is not.
type Unary struct {
	Op      Op
	Operand Expr
}

func (u *Unary) exprNode() {}

func (u *Unary) String() string {
	return "(" + string(u.Op) + " " + u.Operand.String() + ")"
}

// Binary is an infix operator application.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (b *Binary) exprNode() {}

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

// List is a literal sequence. It appears only as the right operand of in.
type List struct {
	Elems []Value
}

func (l *List) exprNode() {}

func (l *List) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Walk calls fn for every node in the tree, parents before children.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *Unary:
		Walk(n.Operand, fn)
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}

// Fields returns the names of all fields the expression references,
// sorted and de-duplicated. Violation snapshots are built from this set.
func Fields(e Expr) []string {
	seen := make(map[string]struct{})
	Walk(e, func(n Expr) {
		if f, ok := n.(*FieldRef); ok {
			seen[f.Name] = struct{}{}
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

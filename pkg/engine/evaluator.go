package engine

import (
	"errors"

	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/vex/ast"
)

// Evaluate applies a parsed expression to a single row. It is a pure
// function: the same expression and row always produce the same result,
// and neither is modified. The error, when non-nil, is an *EvalError.
func Evaluate(expr ast.Expr, row datasource.Row) (bool, error) {
	return evalBool(expr, row)
}

// evalBool evaluates expr in a position that requires a boolean: the
// expression root and the operands of and, or and not.
func evalBool(expr ast.Expr, row datasource.Row) (bool, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		if n.Value.Kind == ast.KindBool {
			return n.Value.Bool, nil
		}
		return false, newEvalError(n.String(), "%s literal where a boolean is required", n.Value.Kind)

	case *ast.FieldRef:
		v, ok := row[n.Name]
		if !ok {
			return false, newEvalError(n.Name, "missing field where a boolean is required")
		}
		if v.Kind != ast.KindBool {
			return false, newEvalError(n.Name, "%s value where a boolean is required", v.Kind)
		}
		return v.Bool, nil

	case *ast.Unary:
		b, err := evalBool(n.Operand, row)
		if err != nil {
			return false, err
		}
		return !b, nil

	case *ast.Binary:
		switch n.Op {
		case ast.OpAnd:
			left, err := evalBool(n.Left, row)
			if err != nil {
				return false, err
			}
			if !left {
				return false, nil
			}
			return evalBool(n.Right, row)
		case ast.OpOr:
			left, err := evalBool(n.Left, row)
			if err != nil {
				return false, err
			}
			if left {
				return true, nil
			}
			return evalBool(n.Right, row)
		case ast.OpIn:
			return evalIn(n, row)
		case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
			return evalComparison(n, row)
		}
		return false, newEvalError(n.String(), "unknown operator %q", n.Op)
	}

	// Lists parse only as the right operand of in; any other shape here
	// is a parser invariant violation.
	return false, newEvalError(expr.String(), "expression is not boolean")
}

// evalComparison evaluates ==, !=, <, <=, > and >=. Comparisons against
// the Null literal are explicit null tests, the one place a null or
// missing value can satisfy a comparison. Everywhere else a null operand
// makes the comparison false, whatever the operator.
func evalComparison(n *ast.Binary, row datasource.Row) (bool, error) {
	if isNullLiteral(n.Left) || isNullLiteral(n.Right) {
		return evalNullTest(n, row)
	}

	left, err := evalValue(n.Left, row)
	if err != nil {
		return false, err
	}
	right, err := evalValue(n.Right, row)
	if err != nil {
		return false, err
	}
	if left.IsNull() || right.IsNull() {
		return false, nil
	}

	ok, err := compare(n.Op, left, right)
	if err != nil {
		return false, withExpr(err, n)
	}
	return ok, nil
}

// evalNullTest handles comparisons where one side is the Null literal.
// x == Null asks whether x is null or missing, x != Null whether it is
// present. Ordering against Null is never meaningful.
func evalNullTest(n *ast.Binary, row datasource.Row) (bool, error) {
	if n.Op.IsOrdering() {
		return false, newEvalError(n.String(), "cannot order against Null")
	}
	other := n.Right
	if isNullLiteral(n.Right) {
		other = n.Left
	}
	v, err := evalValue(other, row)
	if err != nil {
		return false, err
	}
	if n.Op == ast.OpEq {
		return v.IsNull(), nil
	}
	return !v.IsNull(), nil
}

// evalIn evaluates membership. Elements match by the same coercing
// equality comparisons use, and a Null element matches a null or missing
// left operand. Membership itself never errors: equality is total.
func evalIn(n *ast.Binary, row datasource.Row) (bool, error) {
	list, ok := n.Right.(*ast.List)
	if !ok {
		return false, newEvalError(n.String(), "right operand of in must be a list")
	}
	v, err := evalValue(n.Left, row)
	if err != nil {
		return false, err
	}
	for _, elem := range list.Elems {
		if v.IsNull() || elem.IsNull() {
			if v.IsNull() && elem.IsNull() {
				return true, nil
			}
			continue
		}
		if eq, err := compare(ast.OpEq, v, elem); err == nil && eq {
			return true, nil
		}
	}
	return false, nil
}

// evalValue evaluates a comparison operand to a value. Literals and field
// references produce their values directly; a missing field is the null
// value, not an error. Any other operand is a parenthesized boolean
// expression, whose value is its truth.
func evalValue(expr ast.Expr, row datasource.Row) (ast.Value, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.FieldRef:
		return row[n.Name], nil
	}
	b, err := evalBool(expr, row)
	if err != nil {
		return ast.NullValue(), err
	}
	return ast.BoolValue(b), nil
}

// isNullLiteral reports whether the node is the literal Null.
func isNullLiteral(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	return ok && l.IsNull()
}

// withExpr attaches the source fragment to an evaluation error raised
// below this node, so the message points at the comparison that failed.
func withExpr(err error, e ast.Expr) error {
	var ee *EvalError
	if errors.As(err, &ee) && ee.Expr == "" {
		ee.Expr = e.String()
	}
	return err
}

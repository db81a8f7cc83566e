package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"corvid-labs/vigil/pkg/vex/ast"
)

// compare applies a comparison operator to two non-null values, coercing
// across kinds where a coercion is defined. Equality is total: values of
// kinds that cannot be brought together are simply unequal (== false,
// != true). Ordering between such values is an EvalError, as is any
// ordering over booleans.
func compare(op ast.Op, left, right ast.Value) (bool, error) {
	if left.Kind == right.Kind {
		return compareSameKind(op, left, right)
	}
	if l, r, ok := coercePair(left, right); ok {
		return compareSameKind(op, l, r)
	}
	switch op {
	case ast.OpEq:
		return false, nil
	case ast.OpNe:
		return true, nil
	}
	return false, &EvalError{Message: fmt.Sprintf("cannot order %s against %s", left.Kind, right.Kind)}
}

// compareSameKind compares two values of the same kind.
func compareSameKind(op ast.Op, left, right ast.Value) (bool, error) {
	switch left.Kind {
	case ast.KindBool:
		switch op {
		case ast.OpEq:
			return left.Bool == right.Bool, nil
		case ast.OpNe:
			return left.Bool != right.Bool, nil
		}
		return false, &EvalError{Message: "booleans have no ordering"}
	case ast.KindNumber:
		return orderedResult(op, compareFloats(left.Num, right.Num))
	case ast.KindString:
		return orderedResult(op, strings.Compare(left.Str, right.Str))
	case ast.KindDate:
		return orderedResult(op, compareDates(left.Date, right.Date))
	}
	return false, &EvalError{Message: fmt.Sprintf("cannot compare values of kind %s", left.Kind)}
}

// orderedResult maps a three-way comparison outcome to the operator's truth.
func orderedResult(op ast.Op, c int) (bool, error) {
	switch op {
	case ast.OpEq:
		return c == 0, nil
	case ast.OpNe:
		return c != 0, nil
	case ast.OpLt:
		return c < 0, nil
	case ast.OpLe:
		return c <= 0, nil
	case ast.OpGt:
		return c > 0, nil
	case ast.OpGe:
		return c >= 0, nil
	}
	return false, &EvalError{Message: fmt.Sprintf("unknown comparison operator %q", op)}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareDates(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// coercePair brings two values of different kinds to a common kind where a
// coercion is defined. Sides are preserved: the returned values occupy the
// same operand positions as the inputs.
func coercePair(left, right ast.Value) (ast.Value, ast.Value, bool) {
	if r, ok := coerceTo(right, left.Kind); ok {
		return left, r, true
	}
	if l, ok := coerceTo(left, right.Kind); ok {
		return l, right, true
	}
	return left, right, false
}

// coerceTo converts v to the target kind. The defined coercions are the
// boolean spellings "true"/"false"/"1"/"0" (case-insensitive), numeric
// strings, ISO-8601 date strings, and the numbers 1 and 0 as booleans.
func coerceTo(v ast.Value, kind ast.Kind) (ast.Value, bool) {
	if v.Kind == kind {
		return v, true
	}
	switch kind {
	case ast.KindBool:
		switch v.Kind {
		case ast.KindString:
			if b, ok := boolFromString(v.Str); ok {
				return ast.BoolValue(b), true
			}
		case ast.KindNumber:
			if b, ok := boolFromNumber(v.Num); ok {
				return ast.BoolValue(b), true
			}
		}
	case ast.KindNumber:
		if v.Kind == ast.KindString {
			if f, ok := numberFromString(v.Str); ok {
				return ast.NumberValue(f), true
			}
		}
	case ast.KindDate:
		if v.Kind == ast.KindString {
			if d, ok := dateFromString(v.Str); ok {
				return d, true
			}
		}
	}
	return v, false
}

// boolFromString recognizes the boolean spellings, case-insensitively.
func boolFromString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// boolFromNumber recognizes exactly 1 and 0.
func boolFromNumber(f float64) (bool, bool) {
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}

// numberFromString parses a finite number. NaN and infinities are not
// values in this engine, so their spellings stay strings.
func numberFromString(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dateFromString parses an ISO-8601 calendar date.
func dateFromString(s string) (ast.Value, bool) {
	d, err := ast.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return ast.NullValue(), false
	}
	return d, true
}

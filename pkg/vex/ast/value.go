package ast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which member of the value union a Value holds.
type Kind int

const (
	// KindNull is the null value. A missing row field resolves to it, and
	// the Null literal in an expression produces it.
	KindNull Kind = iota

	// KindBool is a boolean value.
	KindBool

	// KindNumber is a numeric value with float64 precision.
	KindNumber

	// KindString is a string value.
	KindString

	// KindDate is an ISO-8601 calendar date, stored at UTC midnight.
	KindDate
)

// String returns a human-readable name for the kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DateLayout is the calendar date form accepted throughout the engine.
const DateLayout = "2006-01-02"

// Value is the tagged union of every value the engine evaluates over.
// Exactly one member is meaningful, selected by Kind; the zero Value is null.
type Value struct {
	// Kind selects the active member.
	Kind Kind

	// Bool is the value when Kind is KindBool.
	Bool bool

	// Num is the value when Kind is KindNumber.
	Num float64

	// Str is the value when Kind is KindString.
	Str string

	// Date is the value when Kind is KindDate.
	Date time.Time
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NumberValue returns a numeric value.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// DateValue returns a calendar date value, truncated to UTC midnight.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return NullValue(), err
	}
	return DateValue(t), nil
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Equal reports strict structural equality: same kind, same member value.
// Cross-kind coercion is deliberately not applied here.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindDate:
		return v.Date.Equal(o.Date)
	default:
		return false
	}
}

// String renders the value in its canonical expression form. The rendering
// is deterministic so serialized results are reproducible run to run.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str)
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return fmt.Sprintf("value(kind=%d)", int(v.Kind))
	}
}

// MarshalJSON encodes the value as its natural JSON form: null, boolean,
// number, string, or a YYYY-MM-DD string for dates.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindDate:
		return json.Marshal(v.Date.Format(DateLayout))
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %d", int(v.Kind))
	}
}

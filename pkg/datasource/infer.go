package datasource

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"corvid-labs/vigil/pkg/vex/ast"
)

// InferValue converts a raw text cell into a typed value. Text formats
// (CSV, TSV, SQL text columns) carry no type information, so the same
// deterministic probe order applies everywhere: empty is null, then
// boolean words, then numbers, then ISO-8601 dates, and anything else
// stays a string. Findings are reproducible across formats because every
// reader uses this one function.
func InferValue(cell string) ast.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return ast.NullValue()
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return ast.BoolValue(true)
	case "false":
		return ast.BoolValue(false)
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		// NaN and infinities would poison comparisons and cannot be
		// serialized; cells spelling them stay strings.
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			return ast.NumberValue(f)
		}
	}

	if isDateLike(trimmed) {
		if v, err := ast.ParseDate(trimmed); err == nil {
			return v
		}
	}

	return ast.StringValue(cell)
}

// ValueOf converts a decoded JSON or YAML native into a typed value.
// Typed inputs keep their types: a quoted "42" stays a string. Strings in
// ISO-8601 date form become dates, since neither format has a date type.
// Nested arrays and objects are held as their compact JSON text; the flat
// row model has no way to address into them, but snapshots stay auditable.
func ValueOf(v interface{}) ast.Value {
	switch val := v.(type) {
	case nil:
		return ast.NullValue()
	case bool:
		return ast.BoolValue(val)
	case float64:
		return ast.NumberValue(val)
	case float32:
		return ast.NumberValue(float64(val))
	case int:
		return ast.NumberValue(float64(val))
	case int64:
		return ast.NumberValue(float64(val))
	case uint64:
		return ast.NumberValue(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return ast.NumberValue(f)
		}
		return ast.StringValue(val.String())
	case string:
		if isDateLike(val) {
			if d, err := ast.ParseDate(val); err == nil {
				return d
			}
		}
		return ast.StringValue(val)
	case time.Time:
		return ast.DateValue(val)
	case []interface{}, map[string]interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return ast.StringValue(fmt.Sprint(val))
		}
		return ast.StringValue(string(data))
	default:
		return ast.StringValue(fmt.Sprint(val))
	}
}

// isDateLike is a cheap shape check (NNNN-NN-NN) applied before paying
// for a full date parse.
func isDateLike(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, ch := range []byte(s) {
		if i == 4 || i == 7 {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

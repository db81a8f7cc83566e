package parser

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestParse_Canonical tests precedence and shape via the canonical rendering.
func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple comparison",
			input: "mfa == True",
			want:  "(mfa == True)",
		},
		{
			name:  "and binds tighter than or",
			input: "a == 1 and b == 2 or c == 3",
			want:  "(((a == 1) and (b == 2)) or (c == 3))",
		},
		{
			name:  "or right side keeps and grouping",
			input: "a == 1 or b == 2 and c == 3",
			want:  "((a == 1) or ((b == 2) and (c == 3)))",
		},
		{
			name:  "not applies to whole comparison",
			input: "not a == 1",
			want:  "(not (a == 1))",
		},
		{
			name:  "not binds tighter than and",
			input: "not a and b",
			want:  "((not a) and b)",
		},
		{
			name:  "double negation",
			input: "not not active",
			want:  "(not (not active))",
		},
		{
			name:  "parentheses override precedence",
			input: "(a == 1 or b == 2) and c == 3",
			want:  "(((a == 1) or (b == 2)) and (c == 3))",
		},
		{
			name:  "in with bracket sequence",
			input: "role in ['admin', 'root']",
			want:  `(role in ["admin", "root"])`,
		},
		{
			name:  "in with paren sequence",
			input: "role in ('admin', 'root')",
			want:  `(role in ["admin", "root"])`,
		},
		{
			name:  "in with mixed literal kinds",
			input: "code in [1, 'two', True, Null]",
			want:  `(code in [1, "two", True, Null])`,
		},
		{
			name:  "empty sequence",
			input: "role in []",
			want:  "(role in [])",
		},
		{
			name:  "trailing comma in sequence",
			input: "n in [1, 2,]",
			want:  "(n in [1, 2])",
		},
		{
			name:  "negative number literal",
			input: "balance >= -1.5",
			want:  "(balance >= -1.5)",
		},
		{
			name:  "null literal comparison",
			input: "email != Null",
			want:  "(email != Null)",
		},
		{
			name:  "none spelling of null",
			input: "email == None",
			want:  "(email == Null)",
		},
		{
			name:  "date-like string literal",
			input: "expires >= '2024-01-01'",
			want:  `(expires >= "2024-01-01")`,
		},
		{
			name:  "bare field reference",
			input: "active",
			want:  "active",
		},
		{
			name:  "comparison of two fields",
			input: "updated_at >= created_at",
			want:  "(updated_at >= created_at)",
		},
		{
			name:  "deeply parenthesized literal",
			input: "(((x)) == ((5)))",
			want:  "(x == 5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got := expr.String(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

// TestParse_Errors tests error positions and messages.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
		wantSubstr string
	}{
		{
			name:       "chained comparison",
			input:      "a == b == c",
			wantOffset: 7,
			wantSubstr: "cannot be chained",
		},
		{
			name:       "chained ordering",
			input:      "1 < x < 10",
			wantOffset: 6,
			wantSubstr: "cannot be chained",
		},
		{
			name:       "single equals",
			input:      "role = 'admin'",
			wantOffset: 5,
			wantSubstr: "expected '=='",
		},
		{
			name:       "bare bang",
			input:      "a ! b",
			wantOffset: 2,
			wantSubstr: "expected '!='",
		},
		{
			name:       "empty input",
			input:      "",
			wantOffset: 0,
			wantSubstr: "unexpected end of expression",
		},
		{
			name:       "dangling operator",
			input:      "mfa == ",
			wantOffset: 7,
			wantSubstr: "unexpected end of expression",
		},
		{
			name:       "unterminated string",
			input:      "name == 'alice",
			wantOffset: 8,
			wantSubstr: "unterminated string literal",
		},
		{
			name:       "unclosed paren",
			input:      "(a == 1 or b == 2",
			wantOffset: 17,
			wantSubstr: "expected ')'",
		},
		{
			name:       "in without sequence",
			input:      "role in admins",
			wantOffset: 8,
			wantSubstr: "sequence of literals after 'in'",
		},
		{
			name:       "field reference inside sequence",
			input:      "role in [admin]",
			wantOffset: 9,
			wantSubstr: "must be literals",
		},
		{
			name:       "nested expression inside sequence",
			input:      "role in [(1)]",
			wantOffset: 9,
			wantSubstr: "in sequence",
		},
		{
			name:       "unclosed sequence",
			input:      "role in ['a', 'b'",
			wantOffset: 17,
			wantSubstr: "unexpected end of expression",
		},
		{
			name:       "sequence outside in",
			input:      "['a', 'b']",
			wantOffset: 0,
			wantSubstr: "only allowed after 'in'",
		},
		{
			name:       "trailing garbage",
			input:      "a == 1 b",
			wantOffset: 7,
			wantSubstr: "after expression",
		},
		{
			name:       "operator as value",
			input:      "not == 1",
			wantOffset: 4,
			wantSubstr: "unexpected",
		},
		{
			name:       "unsupported character",
			input:      "a == 1; b == 2",
			wantOffset: 6,
			wantSubstr: "unexpected character",
		},
		{
			name:       "missing and operand",
			input:      "a == 1 and",
			wantOffset: 10,
			wantSubstr: "unexpected end of expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
			}
			if perr.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d (error: %v)", perr.Offset, tt.wantOffset, perr)
			}
			if !strings.Contains(perr.Error(), tt.wantSubstr) {
				t.Errorf("error %q does not contain %q", perr.Error(), tt.wantSubstr)
			}
		})
	}
}

// TestParse_Deterministic tests that parsing the same input twice yields
// structurally identical trees.
func TestParse_Deterministic(t *testing.T) {
	inputs := []string{
		"mfa == True",
		"role == 'admin' and attempts < 3",
		"a == 1 or b == 2 and not c == 3",
		"status in ['open', 'pending'] or closed_at == Null",
	}
	for _, input := range inputs {
		first, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		second, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) second error = %v", input, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Parse(%q) not deterministic:\n  %s\n  %s", input, first, second)
		}
	}
}

// TestParse_Properties drives the parser with generated inputs.
func TestParse_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("generated expressions parse deterministically", prop.ForAll(
		func(seed int64, depth int) bool {
			input := randomExpr(rand.New(rand.NewSource(seed)), depth)

			first, err1 := Parse(input)
			second, err2 := Parse(input)
			if err1 != nil || err2 != nil {
				t.Errorf("generated expression %q failed to parse: %v / %v", input, err1, err2)
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.Property("canonical rendering reparses to the same tree", prop.ForAll(
		func(seed int64, depth int) bool {
			input := randomExpr(rand.New(rand.NewSource(seed)), depth)

			expr, err := Parse(input)
			if err != nil {
				t.Errorf("generated expression %q failed to parse: %v", input, err)
				return false
			}
			again, err := Parse(expr.String())
			if err != nil {
				t.Errorf("canonical form %q failed to reparse: %v", expr.String(), err)
				return false
			}
			return expr.String() == again.String()
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.Property("parser never panics on arbitrary input", prop.ForAll(
		func(input string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Parse(%q) panicked: %v", input, r)
				}
			}()
			_, _ = Parse(input)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// randomExpr builds a random valid expression string. Depth bounds the
// nesting of boolean connectives.
func randomExpr(rng *rand.Rand, depth int) string {
	if depth <= 0 {
		return randomComparison(rng)
	}
	switch rng.Intn(4) {
	case 0:
		return randomExpr(rng, depth-1) + " and " + randomExpr(rng, depth-1)
	case 1:
		return randomExpr(rng, depth-1) + " or " + randomExpr(rng, depth-1)
	case 2:
		return "not " + randomExpr(rng, depth-1)
	default:
		return "(" + randomExpr(rng, depth-1) + ")"
	}
}

func randomComparison(rng *rand.Rand) string {
	fields := []string{"role", "mfa", "attempts", "amount", "created_at", "_x9"}
	ops := []string{"==", "!=", "<", "<=", ">", ">="}
	literals := []string{"True", "False", "Null", "'admin'", `"usr one"`, "42", "-3.5", "1e3"}

	field := fields[rng.Intn(len(fields))]
	if rng.Intn(4) == 0 {
		elems := make([]string, 1+rng.Intn(3))
		for i := range elems {
			elems[i] = literals[rng.Intn(len(literals))]
		}
		return fmt.Sprintf("%s in [%s]", field, strings.Join(elems, ", "))
	}
	return fmt.Sprintf("%s %s %s", field, ops[rng.Intn(len(ops))], literals[rng.Intn(len(literals))])
}

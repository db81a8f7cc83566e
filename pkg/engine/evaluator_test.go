package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/vex"
	"corvid-labs/vigil/pkg/vex/ast"
)

func evalString(t *testing.T, expr string, row datasource.Row) (bool, error) {
	t.Helper()
	parsed, err := vex.Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", expr, err)
	}
	return Evaluate(parsed, row)
}

func rowOf(fields map[string]interface{}) datasource.Row {
	return datasource.RowOf(fields)
}

// TestEvaluate_Comparisons tests comparison evaluation over typed rows.
func TestEvaluate_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		expr string
		row  map[string]interface{}
		want bool
	}{
		{"equality passes", "mfa == True", map[string]interface{}{"mfa": true}, true},
		{"equality fails", "mfa == True", map[string]interface{}{"mfa": false}, false},
		{"string coerces to bool", "mfa == True", map[string]interface{}{"mfa": "True"}, true},
		{"false spelling coerces", "mfa == True", map[string]interface{}{"mfa": "False"}, false},
		{"number ordering", "attempts < 3", map[string]interface{}{"attempts": 2}, true},
		{"numeric string ordering", "attempts < 3", map[string]interface{}{"attempts": "2"}, true},
		{"string equality", "role == 'admin'", map[string]interface{}{"role": "admin"}, true},
		{"case sensitive strings", "role == 'admin'", map[string]interface{}{"role": "Admin"}, false},
		{"date ordering", "signup >= '2024-01-01'", map[string]interface{}{"signup": "2024-06-15"}, true},
		{"date before range", "signup >= '2024-01-01'", map[string]interface{}{"signup": "2023-12-31"}, false},
		{"two fields", "updated >= created", map[string]interface{}{"created": 100, "updated": 250}, true},
		{"parenthesized comparisons as operands", "(a == 1) == (b == 2)", map[string]interface{}{"a": 1, "b": 3}, false},
		{"incoercible equality is false", "amount == 'lots'", map[string]interface{}{"amount": 5}, false},
		{"incoercible inequality is true", "amount != 'lots'", map[string]interface{}{"amount": 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalString(t, tt.expr, rowOf(tt.row))
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.expr, tt.row, got, tt.want)
			}
		})
	}
}

// TestEvaluate_MissingFields tests that absent fields fail comparisons
// quietly instead of erroring.
func TestEvaluate_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		expr string
		row  map[string]interface{}
		want bool
	}{
		{"missing equality", "missing == 1", map[string]interface{}{}, false},
		{"missing inequality", "missing != 1", map[string]interface{}{}, false},
		{"missing ordering", "missing < 1", map[string]interface{}{}, false},
		{"missing in list", "missing in [1, 2]", map[string]interface{}{}, false},
		{"null field equality", "email == 'a@b.c'", map[string]interface{}{"email": nil}, false},
		{"null field inequality", "email != 'a@b.c'", map[string]interface{}{"email": nil}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalString(t, tt.expr, rowOf(tt.row))
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.expr, tt.row, got, tt.want)
			}
		})
	}
}

// TestEvaluate_NullTests tests explicit comparisons against the Null
// literal, the one place null values satisfy anything.
func TestEvaluate_NullTests(t *testing.T) {
	tests := []struct {
		name string
		expr string
		row  map[string]interface{}
		want bool
	}{
		{"missing is null", "email == Null", map[string]interface{}{}, true},
		{"null value is null", "email == Null", map[string]interface{}{"email": nil}, true},
		{"present is not null", "email == Null", map[string]interface{}{"email": "a@b.c"}, false},
		{"present satisfies not-null", "email != Null", map[string]interface{}{"email": "a@b.c"}, true},
		{"missing fails not-null", "email != Null", map[string]interface{}{}, false},
		{"null on the left", "Null == email", map[string]interface{}{}, true},
		{"null against null literal", "Null == Null", map[string]interface{}{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalString(t, tt.expr, rowOf(tt.row))
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.expr, tt.row, got, tt.want)
			}
		})
	}

	if _, err := evalString(t, "age < Null", rowOf(map[string]interface{}{"age": 5})); err == nil {
		t.Errorf("Evaluate(age < Null) succeeded, want error")
	}
}

// TestEvaluate_In tests membership with per-element coercion.
func TestEvaluate_In(t *testing.T) {
	tests := []struct {
		name string
		expr string
		row  map[string]interface{}
		want bool
	}{
		{"string member", "role in ['admin', 'root']", map[string]interface{}{"role": "root"}, true},
		{"string non-member", "role in ['admin', 'root']", map[string]interface{}{"role": "user"}, false},
		{"numeric string member", "code in [200, 204]", map[string]interface{}{"code": "204"}, true},
		{"bool spelling member", "flag in [True]", map[string]interface{}{"flag": "true"}, true},
		{"null element matches missing", "owner in ['root', Null]", map[string]interface{}{}, true},
		{"null element only matches null", "owner in [Null]", map[string]interface{}{"owner": "root"}, false},
		{"empty list", "role in []", map[string]interface{}{"role": "admin"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalString(t, tt.expr, rowOf(tt.row))
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.expr, tt.row, got, tt.want)
			}
		})
	}
}

// TestEvaluate_BooleanConnectives tests and, or and not, including the
// boolean requirement on their operands.
func TestEvaluate_BooleanConnectives(t *testing.T) {
	row := rowOf(map[string]interface{}{
		"active":   true,
		"locked":   false,
		"attempts": 5,
		"role":     "admin",
	})

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"and both true", "active and role == 'admin'", true},
		{"and one false", "locked and role == 'admin'", false},
		{"or one true", "locked or active", true},
		{"not", "not locked", true},
		{"double not", "not not active", true},
		{"bare bool field", "active", true},
		{"literal true", "True", true},
		{"precedence", "locked and active or active", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalString(t, tt.expr, row)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}

	errCases := []struct {
		name string
		expr string
	}{
		{"number at root", "attempts"},
		{"string field in and", "role and active"},
		{"not over number", "not attempts"},
		{"missing field at root", "unknown"},
		{"number literal at root", "42"},
	}

	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalString(t, tt.expr, row)
			if err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want error", tt.expr)
			}
			var ee *EvalError
			if !errors.As(err, &ee) {
				t.Errorf("Evaluate(%q) error type = %T, want *EvalError", tt.expr, err)
			}
		})
	}
}

// TestEvaluate_ShortCircuit tests that the right operand is not evaluated
// when the left already decides, even when the right would error.
func TestEvaluate_ShortCircuit(t *testing.T) {
	row := rowOf(map[string]interface{}{"active": false, "amount": 5})

	// The right side errors on its own: ordering a number against a word.
	if _, err := evalString(t, "amount < 'plenty'", row); err == nil {
		t.Fatalf("right operand should error when evaluated directly")
	}

	got, err := evalString(t, "active and amount < 'plenty'", row)
	if err != nil {
		t.Fatalf("and short-circuit leaked error: %v", err)
	}
	if got {
		t.Errorf("false and _ = true, want false")
	}

	got, err = evalString(t, "not active or amount < 'plenty'", row)
	if err != nil {
		t.Fatalf("or short-circuit leaked error: %v", err)
	}
	if !got {
		t.Errorf("true or _ = false, want true")
	}
}

// TestEvaluate_ErrorMessages tests that evaluation errors carry the
// offending fragment.
func TestEvaluate_ErrorMessages(t *testing.T) {
	row := rowOf(map[string]interface{}{"amount": 5})

	_, err := evalString(t, "amount < 'plenty'", row)
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("error type = %T, want *EvalError", err)
	}
	if ee.Expr == "" {
		t.Errorf("EvalError.Expr is empty, want the comparison fragment")
	}
}

// TestEvaluate_Purity drives the evaluator with generated rows and checks
// that repeated evaluation of the same expression and row agrees.
func TestEvaluate_Purity(t *testing.T) {
	sources := []string{
		"mfa == True",
		"attempts < 3 and role == 'admin'",
		"amount > 100 or amount == Null",
		"role in ['admin', 'auditor'] and not locked",
		"signup >= '2024-01-01'",
		"not (mfa == True and attempts <= 3)",
	}
	// One shared tree per expression, as the engine holds them: evaluation
	// must not depend on or disturb tree state.
	exprs := make([]ast.Expr, len(sources))
	for i, src := range sources {
		parsed, err := vex.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", src, err)
		}
		exprs[i] = parsed
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("evaluation is pure", prop.ForAll(
		func(seed int64, exprIdx int) bool {
			rng := rand.New(rand.NewSource(seed))
			row := randomRow(rng)
			expr := exprs[exprIdx]

			got1, err1 := Evaluate(expr, row)
			got2, err2 := Evaluate(expr, row)

			if got1 != got2 {
				return false
			}
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil && err1.Error() != err2.Error() {
				return false
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, len(sources)-1),
	))

	properties.TestingRun(t)
}

// randomRow builds a row with a random subset of the fields the purity
// expressions reference, with randomly typed values.
func randomRow(rng *rand.Rand) datasource.Row {
	values := []interface{}{
		true, false, "True", "False", "yes",
		0, 1, 2, 5, 150, "2", "150", "lots",
		"admin", "auditor", "user",
		"2024-06-15", "2023-12-31", "not-a-date",
		nil,
	}
	fields := []string{"mfa", "attempts", "role", "amount", "locked", "signup"}

	row := make(map[string]interface{})
	for _, f := range fields {
		// Leave roughly a quarter of fields missing.
		if rng.Intn(4) == 0 {
			continue
		}
		row[f] = values[rng.Intn(len(values))]
	}
	return rowOf(row)
}

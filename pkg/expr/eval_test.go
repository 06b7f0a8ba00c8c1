package expr

import (
	"testing"

	"github.com/latticedb/lattice/pkg/types"
)

func TestArithmeticKeepsIntWhenBothOperandsAreInt(t *testing.T) {
	e := Binary{Op: "+", Left: Literal{types.NewInt(2)}, Right: Literal{types.NewInt(3)}}
	got := Evaluate(e, nil)
	if got.Kind != types.KindInt || got.Int != 5 {
		t.Fatalf("got %v, want int 5", got)
	}
}

func TestDivisionByZeroIsNull(t *testing.T) {
	e := Binary{Op: "/", Left: Literal{types.NewInt(1)}, Right: Literal{types.NewInt(0)}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected null for division by zero")
	}
}

func TestComparisonOnMixedTypesIsNull(t *testing.T) {
	e := Comparison{Op: "<", Left: Literal{types.NewString("a")}, Right: Literal{types.NewInt(1)}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected null comparing string to int")
	}
}

func TestEqualOfTwoNullsIsNull(t *testing.T) {
	e := Comparison{Op: "=", Left: Literal{types.Null}, Right: Literal{types.Null}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected null = null to be null, not true")
	}
}

func TestThreeValuedAndShortCircuitsOnFalse(t *testing.T) {
	e := BooleanOp{Op: "AND", Left: Literal{types.NewBool(false)}, Right: Literal{types.Null}}
	got := Evaluate(e, nil)
	if got.Kind != types.KindBool || got.Bool {
		t.Fatalf("expected AND(false, null) = false, got %v", got)
	}
}

func TestAndWithNullAndTrueIsNull(t *testing.T) {
	e := BooleanOp{Op: "AND", Left: Literal{types.NewBool(true)}, Right: Literal{types.Null}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected AND(true, null) = null")
	}
}

func TestXorIsBoolXor(t *testing.T) {
	e := BooleanOp{Op: "XOR", Left: Literal{types.NewBool(true)}, Right: Literal{types.NewBool(false)}}
	got := Evaluate(e, nil)
	if !got.Bool {
		t.Fatalf("expected true XOR false = true")
	}
}

func TestIsNullAlwaysReturnsBool(t *testing.T) {
	e := IsNullCheck{Operand: Identifier{Name: "missing"}}
	got := Evaluate(e, Row{})
	if got.Kind != types.KindBool || !got.Bool {
		t.Fatalf("expected IS NULL on unbound identifier to be true, got %v", got)
	}
}

func TestPropertyAccessOnMissingKeyIsNull(t *testing.T) {
	row := Row{"n": types.NewMap(map[string]types.Value{"name": types.NewString("ada")})}
	e := PropertyAccess{Target: Identifier{Name: "n"}, Property: "age"}
	if !Evaluate(e, row).IsNull() {
		t.Fatalf("expected missing property to evaluate to null")
	}
}

func TestUnknownFunctionIsNullNotError(t *testing.T) {
	e := FunctionCall{Name: "notARealFunction", Args: []Expr{Literal{types.NewInt(1)}}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected unknown function call to evaluate to null")
	}
}

func TestStringFunctionsOnNullInputAreNull(t *testing.T) {
	e := FunctionCall{Name: "toUpper", Args: []Expr{Literal{types.Null}}}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected toUpper(null) = null")
	}
}

func TestSimpleCaseEvaluatesTestOnce(t *testing.T) {
	e := CaseExpr{
		Test: Literal{types.NewInt(2)},
		Whens: []WhenClause{
			{Cond: Literal{types.NewInt(1)}, Result: Literal{types.NewString("one")}},
			{Cond: Literal{types.NewInt(2)}, Result: Literal{types.NewString("two")}},
		},
		Else: Literal{types.NewString("other")},
	}
	got := Evaluate(e, nil)
	if got.Str != "two" {
		t.Fatalf("got %v, want \"two\"", got)
	}
}

func TestGenericCaseWithNoElseIsNull(t *testing.T) {
	e := CaseExpr{
		Whens: []WhenClause{
			{Cond: Literal{types.NewBool(false)}, Result: Literal{types.NewInt(1)}},
		},
	}
	if !Evaluate(e, nil).IsNull() {
		t.Fatalf("expected no matching WHEN and no ELSE to be null")
	}
}

func TestInExprMembership(t *testing.T) {
	e := InExpr{
		Item: Literal{types.NewInt(2)},
		List: Literal{types.NewList([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3)})},
	}
	got := Evaluate(e, nil)
	if !got.Bool {
		t.Fatalf("expected 2 IN [1,2,3] = true")
	}
}

func TestStartsWithEndsWithContains(t *testing.T) {
	cases := []struct {
		op   string
		l, r string
		want bool
	}{
		{"STARTS WITH", "hello world", "hello", true},
		{"ENDS WITH", "hello world", "world", true},
		{"CONTAINS", "hello world", "lo wo", true},
		{"CONTAINS", "hello world", "xyz", false},
	}
	for _, c := range cases {
		e := StringMatch{Op: c.op, Left: Literal{types.NewString(c.l)}, Right: Literal{types.NewString(c.r)}}
		got := Evaluate(e, nil)
		if got.Bool != c.want {
			t.Fatalf("%s: got %v, want %v", c.op, got.Bool, c.want)
		}
	}
}

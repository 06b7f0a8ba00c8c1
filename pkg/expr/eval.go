package expr

import (
	"math"

	"github.com/latticedb/lattice/pkg/types"
)

// Row is a single stream row: variable name -> bound value. A bound
// node or relationship is represented as a KindMap Value carrying its
// properties plus the reserved keys "_id", "_labels" (node) or
// "_id", "_type", "_source", "_target" (relationship) — pkg/ir fills
// these in when a Scan/Expand operator binds a variable.
type Row map[string]types.Value

// Evaluate reduces e to a Value against row. It never panics or
// returns an error: every failure mode (unbound identifier, missing
// property, wrong-typed operand, unknown function) degrades to null,
// per spec §4.J.
func Evaluate(e Expr, row Row) types.Value {
	switch n := e.(type) {
	case Literal:
		return n.Value
	case Identifier:
		if v, ok := row[n.Name]; ok {
			return v
		}
		return types.Null
	case PropertyAccess:
		target := Evaluate(n.Target, row)
		if target.Kind != types.KindMap {
			return types.Null
		}
		if v, ok := target.Map[n.Property]; ok {
			return v
		}
		return types.Null
	case ListLiteral:
		out := make([]types.Value, len(n.Elements))
		for i, el := range n.Elements {
			out[i] = Evaluate(el, row)
		}
		return types.NewList(out)
	case MapLiteral:
		out := make(map[string]types.Value, len(n.Entries))
		for k, el := range n.Entries {
			out[k] = Evaluate(el, row)
		}
		return types.NewMap(out)
	case FunctionCall:
		return evalFunction(n, row)
	case Unary:
		return evalUnary(n, row)
	case Binary:
		return evalBinary(n, row)
	case Comparison:
		return evalComparison(n, row)
	case BooleanOp:
		return evalBooleanOp(n, row)
	case InExpr:
		return evalIn(n, row)
	case StringMatch:
		return evalStringMatch(n, row)
	case IsNullCheck:
		v := Evaluate(n.Operand, row)
		isNull := v.IsNull()
		if n.Negated {
			return types.NewBool(!isNull)
		}
		return types.NewBool(isNull)
	case CaseExpr:
		return evalCase(n, row)
	default:
		return types.Null
	}
}

func evalUnary(n Unary, row Row) types.Value {
	v := Evaluate(n.Operand, row)
	switch n.Op {
	case "-":
		switch v.Kind {
		case types.KindInt:
			return types.NewInt(-v.Int)
		case types.KindFloat:
			return types.NewFloat(-v.Float)
		default:
			return types.Null
		}
	case "NOT":
		// three-valued NOT: NOT null = null.
		if v.Kind != types.KindBool {
			return types.Null
		}
		return types.NewBool(!v.Bool)
	default:
		return types.Null
	}
}

func evalBinary(n Binary, row Row) types.Value {
	l := Evaluate(n.Left, row)
	r := Evaluate(n.Right, row)
	if l.IsNull() || r.IsNull() {
		return types.Null
	}

	if n.Op == "+" && (l.Kind == types.KindString || r.Kind == types.KindString) {
		return types.NewString(l.String() + r.String())
	}
	if n.Op == "+" && l.Kind == types.KindList {
		return types.NewList(append(append([]types.Value(nil), l.List...), r))
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return types.Null
	}
	bothInt := l.Kind == types.KindInt && r.Kind == types.KindInt

	var result float64
	switch n.Op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return types.Null
		}
		if bothInt && l.Int%r.Int == 0 {
			return types.NewInt(l.Int / r.Int)
		}
		result = lf / rf
	case "%":
		if rf == 0 {
			return types.Null
		}
		if bothInt {
			return types.NewInt(l.Int % r.Int)
		}
		result = math.Mod(lf, rf)
	default:
		return types.Null
	}
	if bothInt && n.Op != "/" {
		return types.NewInt(int64(result))
	}
	return types.NewFloat(result)
}

func asFloat(v types.Value) (float64, bool) {
	switch v.Kind {
	case types.KindInt:
		return float64(v.Int), true
	case types.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// evalComparison implements spec §4.J: comparisons on mixed
// (non-numeric) types return null; equal of two nulls is null.
func evalComparison(n Comparison, row Row) types.Value {
	l := Evaluate(n.Left, row)
	r := Evaluate(n.Right, row)

	if n.Op == "=" || n.Op == "<>" {
		if l.IsNull() || r.IsNull() {
			return types.Null
		}
		if l.Kind != r.Kind {
			_, lnum := asFloat(l)
			_, rnum := asFloat(r)
			if !lnum || !rnum {
				return types.Null
			}
		}
		eq := l.Equal(r)
		if n.Op == "<>" {
			eq = !eq
		}
		return types.NewBool(eq)
	}

	ord, ok := compareOrdered(l, r)
	if !ok {
		return types.Null
	}
	switch n.Op {
	case "<":
		return types.NewBool(ord < 0)
	case "<=":
		return types.NewBool(ord <= 0)
	case ">":
		return types.NewBool(ord > 0)
	case ">=":
		return types.NewBool(ord >= 0)
	default:
		return types.Null
	}
}

// compareOrdered orders two values when both are numeric or both are
// strings; any other pairing (including either operand null) is not
// comparable.
func compareOrdered(l, r types.Value) (int, bool) {
	if l.IsNull() || r.IsNull() {
		return 0, false
	}
	if lf, lok := asFloat(l); lok {
		if rf, rok := asFloat(r); rok {
			switch {
			case lf < rf:
				return -1, true
			case lf > rf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if l.Kind == types.KindString && r.Kind == types.KindString {
		switch {
		case l.Str < r.Str:
			return -1, true
		case l.Str > r.Str:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// evalBooleanOp implements three-valued AND/OR with short-circuit,
// and XOR as bool(a) ^ bool(b) per spec (non-bool operands -> null).
func evalBooleanOp(n BooleanOp, row Row) types.Value {
	l := Evaluate(n.Left, row)

	switch n.Op {
	case "AND":
		if l.Kind == types.KindBool && !l.Bool {
			return types.NewBool(false)
		}
		r := Evaluate(n.Right, row)
		if r.Kind == types.KindBool && !r.Bool {
			return types.NewBool(false)
		}
		if l.Kind != types.KindBool || r.Kind != types.KindBool {
			return types.Null
		}
		return types.NewBool(true)
	case "OR":
		if l.Kind == types.KindBool && l.Bool {
			return types.NewBool(true)
		}
		r := Evaluate(n.Right, row)
		if r.Kind == types.KindBool && r.Bool {
			return types.NewBool(true)
		}
		if l.Kind != types.KindBool || r.Kind != types.KindBool {
			return types.Null
		}
		return types.NewBool(false)
	case "XOR":
		r := Evaluate(n.Right, row)
		if l.Kind != types.KindBool || r.Kind != types.KindBool {
			return types.Null
		}
		return types.NewBool(l.Bool != r.Bool)
	default:
		return types.Null
	}
}

func evalIn(n InExpr, row Row) types.Value {
	item := Evaluate(n.Item, row)
	list := Evaluate(n.List, row)
	if list.Kind != types.KindList {
		return types.Null
	}
	for _, el := range list.List {
		if item.Equal(el) {
			return types.NewBool(true)
		}
	}
	return types.NewBool(false)
}

func evalStringMatch(n StringMatch, row Row) types.Value {
	l := Evaluate(n.Left, row)
	r := Evaluate(n.Right, row)
	if l.Kind != types.KindString || r.Kind != types.KindString {
		return types.Null
	}
	switch n.Op {
	case "STARTS WITH":
		return types.NewBool(len(l.Str) >= len(r.Str) && l.Str[:len(r.Str)] == r.Str)
	case "ENDS WITH":
		return types.NewBool(len(l.Str) >= len(r.Str) && l.Str[len(l.Str)-len(r.Str):] == r.Str)
	case "CONTAINS":
		return types.NewBool(stringsContains(l.Str, r.Str))
	default:
		return types.Null
	}
}

func stringsContains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// evalCase handles both the simple form (Test != nil: each Cond
// compared to Test by equality) and the generic form (Test == nil:
// each Cond is a boolean expr). Test is evaluated once, per spec.
func evalCase(n CaseExpr, row Row) types.Value {
	var test types.Value
	simple := n.Test != nil
	if simple {
		test = Evaluate(n.Test, row)
	}
	for _, w := range n.Whens {
		if simple {
			cond := Evaluate(w.Cond, row)
			if !test.IsNull() && !cond.IsNull() && test.Equal(cond) {
				return Evaluate(w.Result, row)
			}
			continue
		}
		cond := Evaluate(w.Cond, row)
		if cond.Kind == types.KindBool && cond.Bool {
			return Evaluate(w.Result, row)
		}
	}
	if n.Else != nil {
		return Evaluate(n.Else, row)
	}
	return types.Null
}

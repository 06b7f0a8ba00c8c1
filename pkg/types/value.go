package types

import "fmt"

// Kind tags the variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tagged union every property, parameter, and expression
// result is built from. Only the field matching Kind is meaningful;
// the rest are zero.
//
// Kind must be checked in this order when branching for
// serialization: Bool before Int. A bool is not an int.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	List  []Value
	Map   map[string]Value
}

// Null is the singleton null Value.
var Null = Value{Kind: KindNull}

func NewBool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) Value           { return Value{Kind: KindInt, Int: i} }
func NewFloat(f float64) Value       { return Value{Kind: KindFloat, Float: f} }
func NewString(s string) Value       { return Value{Kind: KindString, Str: s} }
func NewBytes(b []byte) Value        { return Value{Kind: KindBytes, Bytes: b} }
func NewList(l []Value) Value        { return Value{Kind: KindList, List: l} }
func NewMap(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: KindMap, Map: m}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy implements Cypher's boolean coercion for WHERE/FILTER: only
// an explicit bool participates; everything else (including null) is
// not truthy. Callers that need three-valued logic should inspect
// Kind directly instead of calling Truthy.
func (v Value) Truthy() bool {
	return v.Kind == KindBool && v.Bool
}

// Equal implements Value equality. Per spec, comparisons on mixed
// types return null at the expression-evaluator layer; Equal itself
// is a strict structural comparison used by indexes, MERGE matching,
// and DISTINCT dedup, where a concrete true/false (not null) is
// required.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		// int/float cross-comparison is allowed for convenience at
		// this layer; the expression evaluator enforces strict
		// three-valued null semantics on top.
		if v.Kind == KindInt && o.Kind == KindFloat {
			return float64(v.Int) == o.Float
		}
		if v.Kind == KindFloat && o.Kind == KindInt {
			return v.Float == float64(o.Int)
		}
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindString:
		return v.Str == o.Str
	case KindBytes:
		return string(v.Bytes) == string(o.Bytes)
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, mv := range v.Map {
			ov, ok := o.Map[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a Value for debugging and plan/explain output. It is
// not the wire format used by pkg/format.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.Bytes))
	case KindList:
		return fmt.Sprintf("list(%d)", len(v.List))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(v.Map))
	default:
		return "?"
	}
}

// CloneMap deep-copies a property map so callers can't mutate a
// stored node/relationship through an aliased map.
func CloneMap(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Clone deep-copies a Value.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindBytes:
		b := make([]byte, len(v.Bytes))
		copy(b, v.Bytes)
		return Value{Kind: KindBytes, Bytes: b}
	case KindList:
		l := make([]Value, len(v.List))
		for i, e := range v.List {
			l[i] = e.Clone()
		}
		return Value{Kind: KindList, List: l}
	case KindMap:
		return Value{Kind: KindMap, Map: CloneMap(v.Map)}
	default:
		return v
	}
}

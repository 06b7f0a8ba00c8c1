package types

import "fmt"

// ToJSON converts a Value into a plain interface{} tree suitable for
// encoding/json, encoding/xml attribute building, and any other
// generic serializer. Kind is checked bool-before-int throughout the
// package for exactly this reason: encoding/json's own decoder hands
// back float64 for every JSON number, so the inverse, FromJSON, must
// re-derive int64 vs float64 from the literal's shape, not from Go's
// dynamic type.
func ToJSON(v Value) (interface{}, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return v.Float, nil
	case KindString:
		return v.Str, nil
	case KindBytes:
		return v.Bytes, nil
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			jv, err := ToJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, e := range v.Map {
			jv, err := ToJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = jv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %v for serialization", v.Kind)
	}
}

// FromJSON converts a decoded encoding/json tree (as produced by
// json.Unmarshal into interface{}) back into a Value. JSON has no
// int/float distinction, so whole-number float64s decode to KindInt;
// unsigned integers (as a CBOR decoder yields them) decode to KindInt
// as well. The CAR loader decodes its DAG-CBOR payloads into the same
// generic tree and passes them through FromJSON, so a whole-number
// float comes back as KindInt there too; this is a documented,
// spec-acceptable lossiness for the JSON/JSON-Lines/JSON-LD/CAR
// formats.
func FromJSON(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBool(x), nil
	case float64:
		if x == float64(int64(x)) {
			return NewInt(int64(x)), nil
		}
		return NewFloat(x), nil
	case int64:
		return NewInt(x), nil
	case uint64:
		return NewInt(int64(x)), nil
	case string:
		return NewString(x), nil
	case []byte:
		return NewBytes(x), nil
	case []interface{}:
		out := make([]Value, len(x))
		for i, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return Null, err
			}
			out[i] = v
		}
		return NewList(out), nil
	case map[string]interface{}:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return Null, err
			}
			out[k] = v
		}
		return NewMap(out), nil
	default:
		return Null, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

package expr

import (
	"math"
	"strings"

	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/types"
)

// builtinFn is a scalar (non-aggregate) function: args have already
// been evaluated. Aggregate names (count/sum/avg/min/max/collect/
// stddev) are handled entirely inside pkg/ir's Aggregate operator and
// never reach this table.
type builtinFn func(args []types.Value) types.Value

var builtins = map[string]builtinFn{
	"toUpper":   fn1String(strings.ToUpper),
	"toLower":   fn1String(strings.ToLower),
	"trim":      fn1String(strings.TrimSpace),
	"ltrim":     fn1String(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }),
	"rtrim":     fn1String(func(s string) string { return strings.TrimRight(s, " \t\n\r") }),
	"reverse":   fn1String(reverseString),
	"size":      sizeFn,
	"split":     splitFn,
	"replace":   replaceFn,
	"substring": substringFn,
	"left":      leftFn,
	"right":     rightFn,
	"abs":       fn1Float(math.Abs),
	"ceil":      fn1Float(math.Ceil),
	"floor":     fn1Float(math.Floor),
	"round":     fn1Float(math.Round),
	"sqrt":      fn1Float(math.Sqrt),
	"atan2":     atan2Fn,
}

// evalFunction dispatches a scalar FunctionCall. An unknown name, or a
// known function raising an expected error class on bad input, both
// degrade to null rather than aborting the row (spec §4.J).
func evalFunction(n FunctionCall, row Row) types.Value {
	args := make([]types.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = Evaluate(a, row)
	}

	f, ok := builtins[n.Name]
	if !ok {
		log.Logger.Warn().Str("function", n.Name).Str("input_class", inputClass(args)).Msg("unknown expression function")
		return types.Null
	}
	return f(args)
}

func inputClass(args []types.Value) string {
	if len(args) == 0 {
		return "none"
	}
	return args[0].Kind.String()
}

func fn1String(f func(string) string) builtinFn {
	return func(args []types.Value) types.Value {
		if len(args) != 1 || args[0].Kind != types.KindString {
			return types.Null
		}
		return types.NewString(f(args[0].Str))
	}
}

func fn1Float(f func(float64) float64) builtinFn {
	return func(args []types.Value) types.Value {
		if len(args) != 1 {
			return types.Null
		}
		v, ok := asFloat(args[0])
		if !ok {
			return types.Null
		}
		return types.NewFloat(f(v))
	}
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func sizeFn(args []types.Value) types.Value {
	if len(args) != 1 {
		return types.Null
	}
	switch args[0].Kind {
	case types.KindString:
		return types.NewInt(int64(len([]rune(args[0].Str))))
	case types.KindList:
		return types.NewInt(int64(len(args[0].List)))
	default:
		return types.Null
	}
}

func splitFn(args []types.Value) types.Value {
	if len(args) != 2 || args[0].Kind != types.KindString || args[1].Kind != types.KindString {
		return types.Null
	}
	parts := strings.Split(args[0].Str, args[1].Str)
	out := make([]types.Value, len(parts))
	for i, p := range parts {
		out[i] = types.NewString(p)
	}
	return types.NewList(out)
}

func replaceFn(args []types.Value) types.Value {
	if len(args) != 3 {
		return types.Null
	}
	for _, a := range args {
		if a.Kind != types.KindString {
			return types.Null
		}
	}
	return types.NewString(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str))
}

func substringFn(args []types.Value) types.Value {
	if len(args) < 2 || args[0].Kind != types.KindString || args[1].Kind != types.KindInt {
		return types.Null
	}
	r := []rune(args[0].Str)
	start := int(args[1].Int)
	if start < 0 || start > len(r) {
		return types.Null
	}
	end := len(r)
	if len(args) == 3 {
		if args[2].Kind != types.KindInt {
			return types.Null
		}
		length := int(args[2].Int)
		if length < 0 {
			return types.Null
		}
		end = start + length
		if end > len(r) {
			end = len(r)
		}
	}
	return types.NewString(string(r[start:end]))
}

func leftFn(args []types.Value) types.Value {
	if len(args) != 2 || args[0].Kind != types.KindString || args[1].Kind != types.KindInt {
		return types.Null
	}
	r := []rune(args[0].Str)
	n := int(args[1].Int)
	if n < 0 {
		return types.Null
	}
	if n > len(r) {
		n = len(r)
	}
	return types.NewString(string(r[:n]))
}

func rightFn(args []types.Value) types.Value {
	if len(args) != 2 || args[0].Kind != types.KindString || args[1].Kind != types.KindInt {
		return types.Null
	}
	r := []rune(args[0].Str)
	n := int(args[1].Int)
	if n < 0 {
		return types.Null
	}
	if n > len(r) {
		n = len(r)
	}
	return types.NewString(string(r[len(r)-n:]))
}

func atan2Fn(args []types.Value) types.Value {
	if len(args) != 2 {
		return types.Null
	}
	y, ok1 := asFloat(args[0])
	x, ok2 := asFloat(args[1])
	if !ok1 || !ok2 {
		return types.Null
	}
	return types.NewFloat(math.Atan2(y, x))
}

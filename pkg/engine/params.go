package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/latticedb/lattice/pkg/types"
)

// substituteParams rewrites every `$name` occurrence in src with an
// inline Cypher literal for the matching entry of params. Open
// Question (recorded in DESIGN.md): pkg/cypher's lexer/parser has no
// parameter-reference AST node, so wiring real `$name` binding would
// mean extending the lexer, parser and compiler. Given Execute only
// needs to honor spec §4.L's `execute(query, params?)` signature, a
// textual substitution pass ahead of ParseQuery is the minimal change
// that satisfies it; it only renders scalar values (string, int,
// float, bool, null), not lists or maps.
func substituteParams(src string, params map[string]types.Value) string {
	if len(params) == 0 {
		return src
	}
	var b strings.Builder
	i := 0
	for i < len(src) {
		if src[i] == '$' {
			j := i + 1
			for j < len(src) && isParamNameByte(rune(src[j])) {
				j++
			}
			name := src[i+1 : j]
			if v, ok := params[name]; ok {
				b.WriteString(renderLiteral(v))
				i = j
				continue
			}
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}

func isParamNameByte(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func renderLiteral(v types.Value) string {
	switch v.Kind {
	case types.KindNull:
		return "null"
	case types.KindBool:
		return strconv.FormatBool(v.Bool)
	case types.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case types.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case types.KindString:
		return fmt.Sprintf("%q", v.Str)
	default:
		return fmt.Sprintf("%q", v.String())
	}
}

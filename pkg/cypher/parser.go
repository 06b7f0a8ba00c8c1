package cypher

import (
	"strconv"
	"strings"

	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/types"
)

// Parser is a recursive-descent parser over the Lexer's token stream,
// with one token of lookahead.
type Parser struct {
	lex  *Lexer
	tok  Token
	next Token
}

func NewParser(src string) *Parser {
	l := NewLexer(src)
	p := &Parser{lex: l}
	p.tok = l.Next()
	p.next = l.Next()
	return p
}

func (p *Parser) advance() {
	p.tok = p.next
	p.next = p.lex.Next()
}

func (p *Parser) isKeyword(kw string) bool {
	return p.tok.Kind == TokKeyword && p.tok.Text == kw
}

func (p *Parser) isPunct(s string) bool {
	return p.tok.Kind == TokPunct && p.tok.Text == s
}

func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return newParseError(p.tok, "'"+s+"'")
	}
	p.advance()
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return newParseError(p.tok, kw)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.tok.Kind != TokIdent {
		return "", newParseError(p.tok, "identifier")
	}
	name := p.tok.Text
	p.advance()
	return name, nil
}

// ParseQuery parses a full Cypher statement, including UNION chains.
func ParseQuery(src string) (*Query, error) {
	p := NewParser(src)
	q, err := p.parseQuery()
	if err != nil {
		return nil, types.NewParseError("cypher.parse", err)
	}
	if p.tok.Kind != TokEOF {
		return nil, types.NewParseError("cypher.parse", newParseError(p.tok, "<eof>"))
	}
	return q, nil
}

func (p *Parser) parseQuery() (*Query, error) {
	q := &Query{}
	clauses, err := p.parseClauses()
	if err != nil {
		return nil, err
	}
	q.Clauses = clauses
	for p.isKeyword("UNION") {
		p.advance()
		all := false
		if p.isKeyword("ALL") {
			all = true
			p.advance()
		}
		sub, err := p.parseClauses()
		if err != nil {
			return nil, err
		}
		q.Unions = append(q.Unions, UnionPart{All: all, Query: Query{Clauses: sub}})
	}
	return q, nil
}

func (p *Parser) parseClauses() ([]Clause, error) {
	var clauses []Clause
	for {
		switch {
		case p.isKeyword("MATCH") || p.isKeyword("OPTIONAL"):
			c, err := p.parseMatch()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("CREATE"):
			c, err := p.parseCreate()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("MERGE"):
			c, err := p.parseMerge()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("SET"):
			c, err := p.parseSet()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("REMOVE"):
			c, err := p.parseRemove()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("DELETE") || p.isKeyword("DETACH"):
			c, err := p.parseDelete()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("WITH"):
			c, err := p.parseWith()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("RETURN"):
			c, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
			return clauses, nil
		case p.isKeyword("UNWIND"):
			c, err := p.parseUnwind()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("FOREACH"):
			c, err := p.parseForeach()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case p.isKeyword("CALL"):
			c, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		default:
			return clauses, nil
		}
	}
}

// --- MATCH ---

func (p *Parser) parseMatch() (Clause, error) {
	optional := false
	if p.isKeyword("OPTIONAL") {
		optional = true
		p.advance()
		if err := p.expectKeyword("MATCH"); err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}
	parts, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	var where expr.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return MatchClause{Optional: optional, Pattern: parts, Where: where}, nil
}

func (p *Parser) parsePatternList() ([]PatternPart, error) {
	var parts []PatternPart
	part, err := p.parsePatternPart()
	if err != nil {
		return nil, err
	}
	parts = append(parts, part)
	for p.isPunct(",") {
		p.advance()
		part, err := p.parsePatternPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (p *Parser) parsePatternPart() (PatternPart, error) {
	var elems []PatternElement
	n, err := p.parseNodePattern()
	if err != nil {
		return PatternPart{}, err
	}
	elems = append(elems, n)
	for p.isPunct("-") || p.tok.Kind == TokArrow {
		rel, err := p.parseRelPattern()
		if err != nil {
			return PatternPart{}, err
		}
		elems = append(elems, rel)
		n, err := p.parseNodePattern()
		if err != nil {
			return PatternPart{}, err
		}
		elems = append(elems, n)
	}
	return PatternPart{Elements: elems}, nil
}

func (p *Parser) parseNodePattern() (NodePattern, error) {
	if err := p.expectPunct("("); err != nil {
		return NodePattern{}, err
	}
	n := NodePattern{}
	if p.tok.Kind == TokIdent {
		n.Var = p.tok.Text
		p.advance()
	}
	for p.isPunct(":") {
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return NodePattern{}, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.isPunct("{") {
		props, err := p.parsePropertyMap()
		if err != nil {
			return NodePattern{}, err
		}
		n.Properties = props
	}
	if err := p.expectPunct(")"); err != nil {
		return NodePattern{}, err
	}
	return n, nil
}

func (p *Parser) parseRelPattern() (RelPattern, error) {
	r := RelPattern{Direction: DirEither}
	leftArrow := false
	if p.tok.Kind == TokArrow && p.tok.Text == "<-" {
		leftArrow = true
		p.advance()
	} else if p.isPunct("-") {
		p.advance()
	} else {
		return RelPattern{}, newParseError(p.tok, "relationship pattern")
	}

	if p.isPunct("[") {
		p.advance()
		if p.tok.Kind == TokIdent {
			r.Var = p.tok.Text
			p.advance()
		}
		for p.isPunct(":") {
			p.advance()
			typ, err := p.expectIdent()
			if err != nil {
				return RelPattern{}, err
			}
			r.Types = append(r.Types, typ)
			for p.isPunct("|") {
				p.advance()
				typ, err := p.expectIdent()
				if err != nil {
					return RelPattern{}, err
				}
				r.Types = append(r.Types, typ)
			}
		}
		if p.isPunct("*") {
			r.VarLength = true
			p.advance()
			if p.tok.Kind == TokInt {
				n, _ := strconv.Atoi(p.tok.Text)
				r.MinHops = &n
				p.advance()
			}
			if p.isPunct("..") {
				p.advance()
			} else if p.isPunct(".") {
				p.advance()
				if p.isPunct(".") {
					p.advance()
				}
			}
			if p.tok.Kind == TokInt {
				n, _ := strconv.Atoi(p.tok.Text)
				r.MaxHops = &n
				p.advance()
			}
		}
		if p.isPunct("{") {
			props, err := p.parsePropertyMap()
			if err != nil {
				return RelPattern{}, err
			}
			r.Properties = props
		}
		if err := p.expectPunct("]"); err != nil {
			return RelPattern{}, err
		}
	}

	if p.tok.Kind == TokArrow && p.tok.Text == "->" {
		p.advance()
		if leftArrow {
			r.Direction = DirEither
		} else {
			r.Direction = DirRight
		}
	} else if p.isPunct("-") {
		p.advance()
		if leftArrow {
			r.Direction = DirLeft
		}
	} else {
		return RelPattern{}, newParseError(p.tok, "'-' or '->'")
	}
	return r, nil
}

func (p *Parser) parsePropertyMap() (map[string]expr.Expr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	m := map[string]expr.Expr{}
	if p.isPunct("}") {
		p.advance()
		return m, nil
	}
	for {
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m[key] = val
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return m, nil
}

// --- CREATE / MERGE ---

func (p *Parser) parseCreate() (Clause, error) {
	p.advance()
	parts, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	return CreateClause{Pattern: parts}, nil
}

func (p *Parser) parseMerge() (Clause, error) {
	p.advance()
	parts, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	c := MergeClause{Pattern: parts}
	for p.isKeyword("ON") {
		p.advance()
		if p.isKeyword("CREATE") {
			p.advance()
			if err := p.expectKeyword("SET"); err != nil {
				return nil, err
			}
			items, err := p.parseSetItems()
			if err != nil {
				return nil, err
			}
			c.OnCreate = items
		} else if p.isKeyword("MATCH") {
			p.advance()
			if err := p.expectKeyword("SET"); err != nil {
				return nil, err
			}
			items, err := p.parseSetItems()
			if err != nil {
				return nil, err
			}
			c.OnMatch = items
		} else {
			return nil, newParseError(p.tok, "CREATE or MATCH")
		}
	}
	return c, nil
}

// --- SET / REMOVE / DELETE ---

// parseSetItems parses a comma-separated list of SET/ON CREATE SET/ON
// MATCH SET items. Each item's LHS (parseSetItem) uses the postfix-only
// grammar `variable`, `variable.property`, or `variable:Label`, and
// deliberately never calls the general
// expression parser, so the following `=` is never mistaken for the
// equality comparison operator.
func (p *Parser) parseSetItems() ([]SetItem, error) {
	var items []SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSetItem() (SetItem, error) {
	v, err := p.expectIdent()
	if err != nil {
		return SetItem{}, err
	}
	if p.isPunct(":") {
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return SetItem{}, err
		}
		return SetItem{Var: v, Label: label}, nil
	}
	item := SetItem{Var: v}
	if p.isPunct(".") {
		p.advance()
		prop, err := p.expectIdent()
		if err != nil {
			return SetItem{}, err
		}
		item.Property = prop
	}
	if err := p.expectPunct("="); err != nil {
		return SetItem{}, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return SetItem{}, err
	}
	item.Value = val
	return item, nil
}

func (p *Parser) parseSet() (Clause, error) {
	p.advance()
	items, err := p.parseSetItems()
	if err != nil {
		return nil, err
	}
	return SetClause{Items: items}, nil
}

func (p *Parser) parseRemove() (Clause, error) {
	p.advance()
	var items []RemoveItem
	for {
		v, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		item := RemoveItem{Var: v}
		if p.isPunct(":") {
			p.advance()
			label, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			item.Label = label
		} else if p.isPunct(".") {
			p.advance()
			prop, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			item.Property = prop
		} else {
			return nil, newParseError(p.tok, "':' or '.'")
		}
		items = append(items, item)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return RemoveClause{Items: items}, nil
}

func (p *Parser) parseDelete() (Clause, error) {
	detach := false
	if p.isKeyword("DETACH") {
		detach = true
		p.advance()
	}
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	var vars []string
	for {
		v, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return DeleteClause{Detach: detach, Vars: vars}, nil
}

// --- WITH / RETURN ---

func (p *Parser) parseReturnItems() ([]ReturnItem, bool, error) {
	distinct := false
	if p.isKeyword("DISTINCT") {
		distinct = true
		p.advance()
	}
	var items []ReturnItem
	for {
		if p.isPunct("*") {
			p.advance()
			items = append(items, ReturnItem{Star: true})
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, false, err
			}
			item := ReturnItem{Expr: e}
			if p.isKeyword("AS") {
				p.advance()
				alias, err := p.expectIdent()
				if err != nil {
					return nil, false, err
				}
				item.Alias = alias
			}
			items = append(items, item)
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return items, distinct, nil
}

func (p *Parser) parseOrderSkipLimit() ([]OrderItem, expr.Expr, expr.Expr, error) {
	var order []OrderItem
	var skip, limit expr.Expr
	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, nil, nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, nil, nil, err
			}
			desc := false
			if p.isKeyword("DESC") {
				desc = true
				p.advance()
			} else if p.isKeyword("ASC") {
				p.advance()
			}
			order = append(order, OrderItem{Expr: e, Descending: desc})
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if p.isKeyword("SKIP") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		skip = e
	}
	if p.isKeyword("LIMIT") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		limit = e
	}
	return order, skip, limit, nil
}

func (p *Parser) parseWith() (Clause, error) {
	p.advance()
	items, distinct, err := p.parseReturnItems()
	if err != nil {
		return nil, err
	}
	var where expr.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	return WithClause{Items: items, Distinct: distinct, Where: where, OrderBy: order, Skip: skip, Limit: limit}, nil
}

func (p *Parser) parseReturn() (Clause, error) {
	p.advance()
	items, distinct, err := p.parseReturnItems()
	if err != nil {
		return nil, err
	}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	return ReturnClause{Items: items, Distinct: distinct, OrderBy: order, Skip: skip, Limit: limit}, nil
}

// --- UNWIND / FOREACH / CALL ---

func (p *Parser) parseUnwind() (Clause, error) {
	p.advance()
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	alias, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return UnwindClause{List: e, Alias: alias}, nil
}

func (p *Parser) parseForeach() (Clause, error) {
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	alias, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	list, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("|"); err != nil {
		return nil, err
	}
	updates, err := p.parseClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ForeachClause{Alias: alias, List: list, Updates: updates}, nil
}

func (p *Parser) parseCall() (Clause, error) {
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	for p.isPunct(".") {
		p.advance()
		part, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		name = name + "." + part
	}
	var args []expr.Expr
	if p.isPunct("(") {
		p.advance()
		if !p.isPunct(")") {
			for {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	var yield []string
	if p.isKeyword("YIELD") {
		p.advance()
		for {
			y, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			yield = append(yield, y)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	return CallClause{Name: name, Args: args, Yield: yield}, nil
}

// --- Expression grammar (precedence climbing) ---

func (p *Parser) parseExpr() (expr.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (expr.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = expr.BooleanOp{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("XOR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.BooleanOp{Op: "XOR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (expr.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.BooleanOp{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (expr.Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.Unary{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (expr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.tok.Kind == TokCompare:
			op := p.tok.Text
			if op == "!=" {
				op = "<>"
			}
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.Comparison{Op: op, Left: left, Right: right}
		case p.isKeyword("IN"):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.InExpr{Item: left, List: right}
		case p.isKeyword("IS"):
			p.advance()
			neg := false
			if p.isKeyword("NOT") {
				neg = true
				p.advance()
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = expr.IsNullCheck{Operand: left, Negated: neg}
		case p.isKeyword("STARTS"):
			p.advance()
			if err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringMatch{Op: "STARTS WITH", Left: left, Right: right}
		case p.isKeyword("ENDS"):
			p.advance()
			if err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringMatch{Op: "ENDS WITH", Left: left, Right: right}
		case p.isKeyword("CONTAINS"):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringMatch{Op: "CONTAINS", Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditive() (expr.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.tok.Text
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.tok.Text
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (expr.Expr, error) {
	if p.isPunct("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary{Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (expr.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isPunct(".") {
		p.advance()
		prop, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		e = expr.PropertyAccess{Target: e, Property: prop}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (expr.Expr, error) {
	switch {
	case p.tok.Kind == TokInt:
		n, _ := strconv.ParseInt(p.tok.Text, 10, 64)
		p.advance()
		return expr.Literal{Value: types.NewInt(n)}, nil
	case p.tok.Kind == TokFloat:
		f, _ := strconv.ParseFloat(p.tok.Text, 64)
		p.advance()
		return expr.Literal{Value: types.NewFloat(f)}, nil
	case p.tok.Kind == TokString:
		s := p.tok.Text
		p.advance()
		return expr.Literal{Value: types.NewString(s)}, nil
	case p.isKeyword("TRUE"):
		p.advance()
		return expr.Literal{Value: types.NewBool(true)}, nil
	case p.isKeyword("FALSE"):
		p.advance()
		return expr.Literal{Value: types.NewBool(false)}, nil
	case p.isKeyword("NULL"):
		p.advance()
		return expr.Literal{Value: types.Null}, nil
	case p.isKeyword("CASE"):
		return p.parseCase()
	case p.isPunct("("):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.isPunct("["):
		p.advance()
		var elems []expr.Expr
		if !p.isPunct("]") {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return expr.ListLiteral{Elements: elems}, nil
	case p.isPunct("{"):
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		return expr.MapLiteral{Entries: props}, nil
	case p.tok.Kind == TokIdent:
		name := p.tok.Text
		p.advance()
		if p.isPunct("(") {
			return p.parseFunctionCallRest(name)
		}
		return expr.Identifier{Name: name}, nil
	default:
		return nil, newParseError(p.tok, "expression")
	}
}

func (p *Parser) parseFunctionCallRest(name string) (expr.Expr, error) {
	p.advance() // consume '('
	call := expr.FunctionCall{Name: strings.ToLower(name)}
	if p.isPunct("*") {
		call.Star = true
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil
	}
	if p.isKeyword("DISTINCT") {
		call.Distinct = true
		p.advance()
	}
	if !p.isPunct(")") {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseCase() (expr.Expr, error) {
	p.advance()
	ce := expr.CaseExpr{}
	if !p.isKeyword("WHEN") {
		test, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Test = test
	}
	for p.isKeyword("WHEN") {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, expr.WhenClause{Cond: cond, Result: result})
	}
	if p.isKeyword("ELSE") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = e
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}

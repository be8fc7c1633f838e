package parser

import (
	"strconv"

	"attest/internal/ast"
	"attest/internal/source"
	"attest/internal/token"
)

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseCond()
}

// cond ? then : else — lowest precedence, right-associative.
func (p *Parser) parseCond() (ast.Expr, error) {
	start := p.tok.Span
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eat(token.Question) {
		return cond, nil
	}
	then, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	els, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	e := &ast.CondExpr{Cond: cond, Then: then, Else: els}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	return p.parseBoolChain(token.KwOr, ast.OpOr, p.parseAnd)
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	return p.parseBoolChain(token.KwAnd, ast.OpAnd, p.parseNot)
}

// parseBoolChain flattens a and b and c into one node, mirroring the
// short-circuit rewrite which walks all operands of one chain together.
func (p *Parser) parseBoolChain(kind token.Kind, op ast.BoolOp, next func() (ast.Expr, error)) (ast.Expr, error) {
	start := p.tok.Span
	first, err := next()
	if err != nil {
		return nil, err
	}
	if !p.at(kind) {
		return first, nil
	}
	vals := []ast.Expr{first}
	for p.eat(kind) {
		operand, err := next()
		if err != nil {
			return nil, err
		}
		vals = append(vals, operand)
	}
	e := &ast.BoolExpr{Op: op, Vals: vals}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.at(token.KwNot) {
		start := p.tok.Span
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		e := &ast.UnaryExpr{Op: ast.OpNot, X: x}
		e.SetSpan(p.spanFrom(start))
		return e, nil
	}
	return p.parseCompare()
}

func cmpOpFor(kind token.Kind) (ast.CmpOp, bool) {
	switch kind {
	case token.EqEq:
		return ast.OpEq, true
	case token.BangEq:
		return ast.OpNe, true
	case token.Lt:
		return ast.OpLt, true
	case token.LtEq:
		return ast.OpLe, true
	case token.Gt:
		return ast.OpGt, true
	case token.GtEq:
		return ast.OpGe, true
	case token.KwIn:
		return ast.OpIn, true
	default:
		return 0, false
	}
}

// parseCompare collects a whole chain a < b <= c into one node; each operand
// is evaluated once at runtime.
func (p *Parser) parseCompare() (ast.Expr, error) {
	start := p.tok.Span
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []ast.CmpOp
	var rights []ast.Expr
	for {
		op, ok := cmpOpFor(p.tok.Kind)
		if !ok {
			break
		}
		p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		rights = append(rights, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	e := &ast.CompareExpr{Left: left, Ops: ops, Rights: rights}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parseBinChain(next func() (ast.Expr, error), table map[token.Kind]ast.BinOp) (ast.Expr, error) {
	start := p.tok.Span
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := table[p.tok.Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		e := &ast.BinaryExpr{Op: op, L: left, R: right}
		e.SetSpan(p.spanFrom(start))
		left = e
	}
}

var (
	bitOrOps  = map[token.Kind]ast.BinOp{token.Pipe: ast.OpBitOr}
	bitXorOps = map[token.Kind]ast.BinOp{token.Caret: ast.OpBitXor}
	bitAndOps = map[token.Kind]ast.BinOp{token.Amp: ast.OpBitAnd}
	shiftOps  = map[token.Kind]ast.BinOp{token.Shl: ast.OpShl, token.Shr: ast.OpShr}
	addOps    = map[token.Kind]ast.BinOp{token.Plus: ast.OpAdd, token.Minus: ast.OpSub}
	mulOps    = map[token.Kind]ast.BinOp{token.Star: ast.OpMul, token.Slash: ast.OpDiv, token.Percent: ast.OpMod}
)

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.parseBinChain(p.parseBitXor, bitOrOps)
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.parseBinChain(p.parseBitAnd, bitXorOps)
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.parseBinChain(p.parseShift, bitAndOps)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinChain(p.parseAdd, shiftOps)
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	return p.parseBinChain(p.parseMul, addOps)
}

func (p *Parser) parseMul() (ast.Expr, error) {
	return p.parseBinChain(p.parseUnary, mulOps)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	var op ast.UnaryOp
	switch p.tok.Kind {
	case token.Minus:
		op = ast.OpNeg
	case token.Plus:
		op = ast.OpPos
	case token.Tilde:
		op = ast.OpInvert
	default:
		return p.parsePostfix()
	}
	start := p.tok.Span
	p.advance()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	e := &ast.UnaryExpr{Op: op, X: x}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	start := p.tok.Span
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.Kind {
		case token.LParen:
			x, err = p.parseCall(x, start)
			if err != nil {
				return nil, err
			}
		case token.Dot:
			p.advance()
			name, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			e := &ast.AttrExpr{X: x, Name: name.Text}
			e.SetSpan(p.spanFrom(start))
			x = e
		case token.LBracket:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			e := &ast.IndexExpr{X: x, Index: index}
			e.SetSpan(p.spanFrom(start))
			x = e
		default:
			return x, nil
		}
	}
}

func (p *Parser) parseCall(fn ast.Expr, start source.Span) (ast.Expr, error) {
	p.advance() // (
	e := &ast.CallExpr{Fn: fn}
	for !p.at(token.RParen) {
		if p.eat(token.Ellipsis) {
			if e.Spread != nil {
				return nil, p.errorf("duplicate spread argument")
			}
			spread, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			e.Spread = spread
		} else {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.at(token.Colon) {
				name, ok := arg.(*ast.NameExpr)
				if !ok {
					return nil, p.errorf("keyword argument name must be an identifier")
				}
				p.advance()
				value, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				e.KwNames = append(e.KwNames, name.Name)
				e.KwVals = append(e.KwVals, value)
			} else {
				e.Args = append(e.Args, arg)
			}
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.tok
	switch tok.Kind {
	case token.Ident:
		p.advance()
		e := &ast.NameExpr{Name: tok.Text}
		e.SetSpan(tok.Span)
		return e, nil
	case token.NothingLit:
		p.advance()
		e := &ast.NothingLit{}
		e.SetSpan(tok.Span)
		return e, nil
	case token.KwTrue, token.KwFalse:
		p.advance()
		e := &ast.BoolLit{V: tok.Kind == token.KwTrue}
		e.SetSpan(tok.Span)
		return e, nil
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", tok.Text)
		}
		e := &ast.IntLit{V: v}
		e.SetSpan(tok.Span)
		return e, nil
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", tok.Text)
		}
		e := &ast.FloatLit{V: v}
		e.SetSpan(tok.Span)
		return e, nil
	case token.StringLit:
		p.advance()
		e := &ast.StrLit{V: tok.Text}
		e.SetSpan(tok.Span)
		return e, nil
	case token.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.LBracket:
		return p.parseList()
	case token.LBrace:
		return p.parseMap()
	default:
		return nil, p.errorf("expected expression, found %q", tok.Kind)
	}
}

func (p *Parser) parseList() (ast.Expr, error) {
	start := p.tok.Span
	p.advance() // [
	e := &ast.ListExpr{}
	for !p.at(token.RBracket) {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e.Elems = append(e.Elems, elem)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

func (p *Parser) parseMap() (ast.Expr, error) {
	start := p.tok.Span
	p.advance() // {
	p.skipNewlines()
	e := &ast.MapExpr{}
	for !p.at(token.RBrace) {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		p.skipNewlines()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e.Keys = append(e.Keys, key)
		e.Vals = append(e.Vals, value)
		p.skipNewlines()
		if !p.eat(token.Comma) {
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	e.SetSpan(p.spanFrom(start))
	return e, nil
}

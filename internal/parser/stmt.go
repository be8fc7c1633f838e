package parser

import (
	"attest/internal/ast"
	"attest/internal/token"
)

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.tok.Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwFn:
		return p.parseFn()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwBreak:
		start := p.tok.Span
		p.advance()
		s := &ast.BreakStmt{}
		s.SetSpan(start)
		return s, nil
	case token.KwContinue:
		start := p.tok.Span
		p.advance()
		s := &ast.ContinueStmt{}
		s.SetSpan(start)
		return s, nil
	case token.KwReturn:
		return p.parseReturn()
	case token.KwImport:
		return p.parseImport()
	case token.KwAssert:
		return p.parseAssert()
	case token.KwRaise:
		return p.parseRaise()
	case token.KwDel:
		return p.parseDel()
	case token.KwPragma:
		return p.parsePragma()
	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	s := &ast.LetStmt{Name: name.Text, Value: value}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseFn() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(token.RParen) {
		param, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &ast.FnStmt{Name: name.Text, Params: params, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &ast.IfStmt{Cond: cond, Then: then}
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			s.Else = []ast.Stmt{nested}
		} else {
			els, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			s.Else = els
		}
	}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &ast.WhileStmt{Cond: cond, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwIn); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &ast.ForStmt{Var: name.Text, Iter: iter, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	s := &ast.ReturnStmt{}
	if !p.tok.Terminates() && !p.at(token.RBrace) {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		s.Value = value
	}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	path, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwAs); err != nil {
		return nil, err
	}
	alias, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	s := &ast.ImportStmt{Path: path.Text, Alias: alias.Text}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseAssert() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	s := &ast.AssertStmt{Test: test}
	if p.eat(token.Comma) {
		msg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		s.Msg = msg
	}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseRaise() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	s := &ast.RaiseStmt{X: x}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseDel() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	var names []string
	for {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Text)
		if !p.eat(token.Comma) {
			break
		}
	}
	s := &ast.DelStmt{Names: names}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parsePragma() (ast.Stmt, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	s := &ast.PragmaStmt{Name: name.Text}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

func (p *Parser) parseExprOrAssign() (ast.Stmt, error) {
	start := p.tok.Span
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Assign) {
		switch x.(type) {
		case *ast.NameExpr, *ast.AttrExpr, *ast.IndexExpr:
		default:
			return nil, p.errorf("cannot assign to this expression")
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		s := &ast.AssignStmt{Target: x, Value: value}
		s.SetSpan(p.spanFrom(start))
		return s, nil
	}
	s := &ast.ExprStmt{X: x}
	s.SetSpan(p.spanFrom(start))
	return s, nil
}

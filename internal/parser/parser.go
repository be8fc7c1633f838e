// Package parser builds an ast.File from one source unit.
//
// It is a plain recursive-descent parser. Parsing stops at the first error:
// the loader abstains from rewriting on any parse failure and lets the file
// fail again through the normal loading path, so recovery buys nothing here.
package parser

import (
	"fmt"

	"attest/internal/ast"
	"attest/internal/diag"
	"attest/internal/lexer"
	"attest/internal/source"
	"attest/internal/token"
)

type Parser struct {
	unit *source.Unit
	lx   *lexer.Lexer
	rep  diag.Reporter
	tok  token.Token // current token
	prev token.Token // last consumed token
}

// ParseUnit parses a whole source unit.
func ParseUnit(u *source.Unit, rep diag.Reporter) (*ast.File, error) {
	if rep == nil {
		rep = diag.Nop{}
	}
	p := &Parser{
		unit: u,
		lx:   lexer.New(u, rep),
		rep:  rep,
	}
	p.advance()
	return p.parseFile()
}

func (p *Parser) advance() {
	p.prev = p.tok
	p.tok = p.lx.Next()
}

func (p *Parser) at(kind token.Kind) bool {
	return p.tok.Kind == kind
}

func (p *Parser) eat(kind token.Kind) bool {
	if p.at(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if !p.at(kind) {
		return p.tok, p.errorf("expected %q, found %q", kind, p.tok.Kind)
	}
	tok := p.tok
	p.advance()
	return tok, nil
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) || p.at(token.Semicolon) {
		p.advance()
	}
}

func (p *Parser) errorf(format string, args ...any) error {
	pos := p.unit.LineCol(p.tok.Span.Start)
	diag.Errorf(p.rep, p.unit.Path, pos, format, args...)
	return fmt.Errorf("%s:%s: %s", p.unit.Path, pos, fmt.Sprintf(format, args...))
}

// spanFrom covers from a start offset to the end of the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.prev.Span)
}

func (p *Parser) parseFile() (*ast.File, error) {
	f := &ast.File{Path: p.unit.Path, LineIdx: p.unit.LineIdx}
	p.skipNewlines()
	for !p.at(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		f.Body = append(f.Body, s)
		if err := p.endStmt(false); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	return f, nil
}

// endStmt consumes a statement terminator. Inside a block a closing brace
// also ends the statement (left for the block parser to consume).
func (p *Parser) endStmt(inBlock bool) error {
	switch {
	case p.at(token.Newline), p.at(token.Semicolon):
		p.advance()
		return nil
	case p.at(token.EOF):
		return nil
	case inBlock && p.at(token.RBrace):
		return nil
	default:
		return p.errorf("expected end of statement, found %q", p.tok.Kind)
	}
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var body []ast.Stmt
	for {
		p.skipNewlines()
		if p.eat(token.RBrace) {
			return body, nil
		}
		if p.at(token.EOF) {
			return nil, p.errorf("unexpected end of file in block")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
		if err := p.endStmt(true); err != nil {
			return nil, err
		}
	}
}

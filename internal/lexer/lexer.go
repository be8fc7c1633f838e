package lexer

import (
	"attest/internal/diag"
	"attest/internal/source"
	"attest/internal/token"
)

// Lexer produces significant tokens for one source unit. Newlines are
// emitted as statement terminators except inside parentheses and brackets,
// where they are insignificant and swallowed.
type Lexer struct {
	unit   *source.Unit
	cursor Cursor
	rep    diag.Reporter
	look   *token.Token // one-token lookahead buffer
	depth  int          // open ( and [ nesting
}

func New(u *source.Unit, rep diag.Reporter) *Lexer {
	if rep == nil {
		rep = diag.Nop{}
	}
	return &Lexer{
		unit:   u,
		cursor: NewCursor(u),
		rep:    rep,
	}
}

// Next returns the next significant token. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	for {
		sawNewline := lx.skipBlanks()
		if sawNewline && lx.depth == 0 {
			end := lx.cursor.Off
			return token.Token{Kind: token.Newline, Span: source.Span{Start: end, End: end}}
		}
		if lx.cursor.EOF() {
			return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
		}

		ch := lx.cursor.Peek()
		var tok token.Token
		switch {
		case isIdentStart(ch):
			tok = lx.scanIdentOrKeyword()
		case isDec(ch):
			tok = lx.scanNumber()
		case ch == '"':
			tok = lx.scanString()
		default:
			tok = lx.scanOperatorOrPunct()
		}

		switch tok.Kind {
		case token.LParen, token.LBracket:
			lx.depth++
		case token.RParen, token.RBracket:
			if lx.depth > 0 {
				lx.depth--
			}
		}
		return tok
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// skipBlanks consumes spaces, tabs, comments, and (inside brackets)
// newlines. Reports whether at least one newline was crossed.
func (lx *Lexer) skipBlanks() bool {
	sawNewline := false
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\r':
			lx.cursor.Bump()
		case '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case '\n':
			sawNewline = true
			lx.cursor.Bump()
			// Collapse runs of newlines into one terminator.
			for !lx.cursor.EOF() {
				b := lx.cursor.Peek()
				if b == '\n' || b == ' ' || b == '\t' || b == '\r' {
					lx.cursor.Bump()
					continue
				}
				if b == '#' {
					for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
						lx.cursor.Bump()
					}
					continue
				}
				break
			}
			if lx.depth == 0 {
				return true
			}
		default:
			return sawNewline
		}
	}
	return sawNewline
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) errorf(span source.Span, format string, args ...any) {
	diag.Errorf(lx.rep, lx.unit.Path, lx.unit.LineCol(span.Start), format, args...)
}

package lexer

import (
	"strings"

	"attest/internal/source"
	"attest/internal/token"
)

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Off
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	span := source.Span{Start: start, End: lx.cursor.Off}
	text := lx.cursor.Slice(start, lx.cursor.Off)
	if kind, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kind, Span: span, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: span, Text: text}
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Off
	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	isFloat := false
	// A fraction only when the dot is followed by a digit, so that
	// member access on an int literal stays lexable.
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		isFloat = true
		lx.cursor.Bump()
		for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			isFloat = true
			lx.cursor.Bump()
			if b := lx.cursor.Peek(); b == '+' || b == '-' {
				lx.cursor.Bump()
			}
			for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}
	span := source.Span{Start: start, End: lx.cursor.Off}
	text := lx.cursor.Slice(start, lx.cursor.Off)
	kind := token.IntLit
	if isFloat {
		kind = token.FloatLit
	}
	return token.Token{Kind: kind, Span: span, Text: text}
}

// scanString consumes a double-quoted string literal. The returned Text is
// the decoded value, not the source spelling.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Off
	lx.cursor.Bump() // opening quote
	var sb strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			span := source.Span{Start: start, End: lx.cursor.Off}
			lx.errorf(span, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: span, Text: sb.String()}
		}
		b := lx.cursor.Bump()
		if b == '"' {
			break
		}
		if b != '\\' {
			sb.WriteByte(b)
			continue
		}
		esc := lx.cursor.Bump()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			lx.errorf(source.Span{Start: lx.cursor.Off - 1, End: lx.cursor.Off},
				"unknown escape sequence %q", string(rune(esc)))
			sb.WriteByte(esc)
		}
	}
	span := source.Span{Start: start, End: lx.cursor.Off}
	return token.Token{Kind: token.StringLit, Span: span, Text: sb.String()}
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Off
	mk := func(kind token.Kind, n uint32) token.Token {
		for i := uint32(0); i < n; i++ {
			lx.cursor.Bump()
		}
		span := source.Span{Start: start, End: lx.cursor.Off}
		return token.Token{Kind: kind, Span: span, Text: lx.cursor.Slice(start, lx.cursor.Off)}
	}

	b0 := lx.cursor.Peek()
	b1 := lx.cursor.PeekAt(1)
	switch b0 {
	case '+':
		return mk(token.Plus, 1)
	case '-':
		return mk(token.Minus, 1)
	case '*':
		return mk(token.Star, 1)
	case '/':
		return mk(token.Slash, 1)
	case '%':
		return mk(token.Percent, 1)
	case '~':
		return mk(token.Tilde, 1)
	case '&':
		return mk(token.Amp, 1)
	case '|':
		return mk(token.Pipe, 1)
	case '^':
		return mk(token.Caret, 1)
	case '<':
		if b1 == '<' {
			return mk(token.Shl, 2)
		}
		if b1 == '=' {
			return mk(token.LtEq, 2)
		}
		return mk(token.Lt, 1)
	case '>':
		if b1 == '>' {
			return mk(token.Shr, 2)
		}
		if b1 == '=' {
			return mk(token.GtEq, 2)
		}
		return mk(token.Gt, 1)
	case '=':
		if b1 == '=' {
			return mk(token.EqEq, 2)
		}
		return mk(token.Assign, 1)
	case '!':
		if b1 == '=' {
			return mk(token.BangEq, 2)
		}
	case '(':
		return mk(token.LParen, 1)
	case ')':
		return mk(token.RParen, 1)
	case '{':
		return mk(token.LBrace, 1)
	case '}':
		return mk(token.RBrace, 1)
	case '[':
		return mk(token.LBracket, 1)
	case ']':
		return mk(token.RBracket, 1)
	case ',':
		return mk(token.Comma, 1)
	case '.':
		if b1 == '.' && lx.cursor.PeekAt(2) == '.' {
			return mk(token.Ellipsis, 3)
		}
		return mk(token.Dot, 1)
	case ':':
		return mk(token.Colon, 1)
	case ';':
		return mk(token.Semicolon, 1)
	case '?':
		return mk(token.Question, 1)
	}

	tok := mk(token.Invalid, 1)
	lx.errorf(tok.Span, "unexpected character %q", string(rune(b0)))
	return tok
}

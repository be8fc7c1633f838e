package token

import (
	"attest/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean, string or
// nothing literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NothingLit, IntLit, FloatLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwLet, KwFn, KwIf, KwElse, KwWhile, KwFor, KwIn, KwBreak, KwContinue,
		KwReturn, KwImport, KwAs, KwAssert, KwRaise, KwDel, KwPragma,
		KwAnd, KwOr, KwNot, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// Terminates reports whether the token ends a statement.
func (t Token) Terminates() bool {
	switch t.Kind {
	case Newline, Semicolon, EOF:
		return true
	default:
		return false
	}
}

package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline is a statement-terminating line break.
	Newline

	// Ident represents an identifier token.
	Ident
	// KwLet represents the 'let' keyword.
	KwLet // let
	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwWhile represents the 'while' keyword.
	KwWhile // while
	// KwFor represents the 'for' keyword.
	KwFor // for
	// KwIn represents the 'in' keyword.
	KwIn // in
	// KwBreak represents the 'break' keyword.
	KwBreak // break
	// KwContinue represents the 'continue' keyword.
	KwContinue // continue
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwImport represents the 'import' keyword.
	KwImport // import
	// KwAs represents the 'as' keyword.
	KwAs // as
	// KwAssert represents the 'assert' keyword.
	KwAssert // assert
	// KwRaise represents the 'raise' keyword.
	KwRaise // raise
	// KwDel represents the 'del' keyword.
	KwDel // del
	// KwPragma represents the 'pragma' keyword.
	KwPragma // pragma
	// KwAnd represents the 'and' keyword.
	KwAnd // and
	// KwOr represents the 'or' keyword.
	KwOr // or
	// KwNot represents the 'not' keyword.
	KwNot // not
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// NothingLit represents the nothing literal token.
	NothingLit
	// IntLit represents the integer literal token.
	IntLit
	// FloatLit represents the float literal token.
	FloatLit
	// StringLit represents the string literal token.
	StringLit

	// Plus represents the plus operator token.
	Plus // +
	// Minus represents the minus operator token.
	Minus // -
	// Star represents the star operator token.
	Star // *
	// Slash represents the slash operator token.
	Slash // /
	// Percent represents the percent operator token.
	Percent // %
	// Tilde represents the bitwise-invert operator token.
	Tilde // ~
	// Amp represents the bitwise-and operator token.
	Amp // &
	// Pipe represents the bitwise-or operator token.
	Pipe // |
	// Caret represents the bitwise-xor operator token.
	Caret // ^
	// Shl represents the shift-left operator token.
	Shl // <<
	// Shr represents the shift-right operator token.
	Shr // >>

	// EqEq represents the equality operator token.
	EqEq // ==
	// BangEq represents the inequality operator token.
	BangEq // !=
	// Lt represents the less-than operator token.
	Lt // <
	// LtEq represents the less-or-equal operator token.
	LtEq // <=
	// Gt represents the greater-than operator token.
	Gt // >
	// GtEq represents the greater-or-equal operator token.
	GtEq // >=
	// Assign represents the assignment token.
	Assign // =

	// LParen represents '('.
	LParen // (
	// RParen represents ')'.
	RParen // )
	// LBrace represents '{'.
	LBrace // {
	// RBrace represents '}'.
	RBrace // }
	// LBracket represents '['.
	LBracket // [
	// RBracket represents ']'.
	RBracket // ]
	// Comma represents ','.
	Comma // ,
	// Dot represents '.'.
	Dot // .
	// Colon represents ':'.
	Colon // :
	// Semicolon represents ';'.
	Semicolon // ;
	// Question represents '?'.
	Question // ?
	// Ellipsis represents '...'.
	Ellipsis // ...
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	EOF:        "eof",
	Newline:    "newline",
	Ident:      "ident",
	KwLet:      "let",
	KwFn:       "fn",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwFor:      "for",
	KwIn:       "in",
	KwBreak:    "break",
	KwContinue: "continue",
	KwReturn:   "return",
	KwImport:   "import",
	KwAs:       "as",
	KwAssert:   "assert",
	KwRaise:    "raise",
	KwDel:      "del",
	KwPragma:   "pragma",
	KwAnd:      "and",
	KwOr:       "or",
	KwNot:      "not",
	KwTrue:     "true",
	KwFalse:    "false",
	NothingLit: "nothing",
	IntLit:     "int",
	FloatLit:   "float",
	StringLit:  "string",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Tilde:      "~",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	Shl:        "<<",
	Shr:        ">>",
	EqEq:       "==",
	BangEq:     "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Assign:     "=",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	Comma:      ",",
	Dot:        ".",
	Colon:      ":",
	Semicolon:  ";",
	Question:   "?",
	Ellipsis:   "...",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

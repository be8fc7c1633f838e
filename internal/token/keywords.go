package token

var keywords = map[string]Kind{
	"let":      KwLet,
	"fn":       KwFn,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"in":       KwIn,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"import":   KwImport,
	"as":       KwAs,
	"assert":   KwAssert,
	"raise":    KwRaise,
	"del":      KwDel,
	"pragma":   KwPragma,
	"and":      KwAnd,
	"or":       KwOr,
	"not":      KwNot,
	"true":     KwTrue,
	"false":    KwFalse,
	"nothing":  NothingLit,
}

// LookupKeyword returns the keyword kind for ident, if it names one.
// Keywords are case-sensitive; only lowercase spellings are recognized.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

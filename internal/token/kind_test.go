package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		ident string
		kind  Kind
		ok    bool
	}{
		{"assert", KwAssert, true},
		{"and", KwAnd, true},
		{"nothing", NothingLit, true},
		{"Assert", Invalid, false},
		{"foo", Invalid, false},
	}
	for _, c := range cases {
		k, ok := LookupKeyword(c.ident)
		if ok != c.ok || (ok && k != c.kind) {
			t.Errorf("LookupKeyword(%q) = %v, %v; want %v, %v", c.ident, k, ok, c.kind, c.ok)
		}
	}
}

func TestTokenClassification(t *testing.T) {
	if !(Token{Kind: StringLit}).IsLiteral() {
		t.Error("string literal not classified as literal")
	}
	if !(Token{Kind: KwAssert}).IsKeyword() {
		t.Error("assert not classified as keyword")
	}
	if (Token{Kind: Ident}).IsKeyword() {
		t.Error("ident wrongly classified as keyword")
	}
	for _, k := range []Kind{Newline, Semicolon, EOF} {
		if !(Token{Kind: k}).Terminates() {
			t.Errorf("%v should terminate a statement", k)
		}
	}
}

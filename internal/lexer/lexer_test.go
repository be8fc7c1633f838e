package lexer_test

import (
	"testing"

	"attest/internal/diag"
	"attest/internal/lexer"
	"attest/internal/source"
	"attest/internal/token"
)

func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	unit := source.NewVirtual("test.att", []byte(input), 0)
	bag := &diag.Bag{}
	return lexer.New(unit, bag), bag
}

func collectKinds(lx *lexer.Lexer) []token.Kind {
	var kinds []token.Kind
	for {
		tok := lx.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestLexer_Statements(t *testing.T) {
	lx, bag := makeTestLexer("let x = 1\nassert x == 2, \"msg\"\n")
	want := []token.Kind{
		token.KwLet, token.Ident, token.Assign, token.IntLit, token.Newline,
		token.KwAssert, token.Ident, token.EqEq, token.IntLit, token.Comma,
		token.StringLit, token.Newline, token.EOF,
	}
	got := collectKinds(lx)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
	if bag.HasErrors() {
		t.Errorf("unexpected errors: %v", bag.All())
	}
}

func TestLexer_NewlinesInsideBracketsAreInsignificant(t *testing.T) {
	lx, _ := makeTestLexer("f(\n  1,\n  2,\n)\n[1,\n2]\n")
	got := collectKinds(lx)
	for i, k := range got {
		if k == token.Newline {
			// Only the terminators after ')' and ']' may remain.
			prev := got[i-1]
			if prev != token.RParen && prev != token.RBracket {
				t.Errorf("unexpected newline token after %v", prev)
			}
		}
	}
}

func TestLexer_CollapsesBlankLinesAndComments(t *testing.T) {
	lx, _ := makeTestLexer("a\n\n# comment\n\nb")
	want := []token.Kind{token.Ident, token.Newline, token.Ident, token.EOF}
	got := collectKinds(lx)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	lx, bag := makeTestLexer(`"a\nb\t\"c\\"`)
	tok := lx.Next()
	if tok.Kind != token.StringLit {
		t.Fatalf("kind = %v, want string", tok.Kind)
	}
	if tok.Text != "a\nb\t\"c\\" {
		t.Errorf("decoded = %q", tok.Text)
	}
	if bag.HasErrors() {
		t.Errorf("unexpected errors: %v", bag.All())
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	lx, bag := makeTestLexer("\"oops\nnext")
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Fatalf("kind = %v, want invalid", tok.Kind)
	}
	if !bag.HasErrors() {
		t.Error("expected a diagnostic for unterminated string")
	}
}

func TestLexer_Numbers(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
	}{
		{"42", token.IntLit},
		{"3.25", token.FloatLit},
		{"1e9", token.FloatLit},
		{"2.5e-3", token.FloatLit},
	}
	for _, c := range cases {
		lx, _ := makeTestLexer(c.input)
		tok := lx.Next()
		if tok.Kind != c.kind || tok.Text != c.input {
			t.Errorf("lex(%q) = %v %q, want %v", c.input, tok.Kind, tok.Text, c.kind)
		}
	}
}

func TestLexer_DotAfterIntIsAttrAccess(t *testing.T) {
	lx, _ := makeTestLexer("x.y")
	want := []token.Kind{token.Ident, token.Dot, token.Ident, token.EOF}
	got := collectKinds(lx)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLexer_AtIsNotLexable(t *testing.T) {
	// '@' never lexes: synthesized rewriter names can't collide with user code.
	lx, bag := makeTestLexer("@t0")
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Fatalf("kind = %v, want invalid", tok.Kind)
	}
	if !bag.HasErrors() {
		t.Error("expected a diagnostic for '@'")
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	p := lx.Peek()
	n := lx.Next()
	if p.Kind != n.Kind || p.Text != n.Text {
		t.Errorf("Peek %v != Next %v", p, n)
	}
	if lx.Next().Text != "b" {
		t.Error("lookahead consumed a token")
	}
}

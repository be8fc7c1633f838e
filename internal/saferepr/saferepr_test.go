package saferepr

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"attest/internal/interp"
)

func TestRepr_Scalars(t *testing.T) {
	cases := []struct {
		in   interp.Value
		want string
	}{
		{interp.Nothing{}, "nothing"},
		{interp.Bool(true), "true"},
		{interp.Int(-7), "-7"},
		{interp.Float(1.5), "1.5"},
		{interp.Str("a\nb"), `"a\nb"`},
	}
	for _, c := range cases {
		if got := Repr(c.in); got != c.want {
			t.Errorf("Repr(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRepr_Containers(t *testing.T) {
	l := &interp.List{Elems: []interp.Value{interp.Int(1), interp.Str("x")}}
	if got := Repr(l); got != `[1, "x"]` {
		t.Errorf("list: %q", got)
	}
	m := interp.NewMap()
	m.Set("b", interp.Int(2))
	m.Set("a", interp.Int(1))
	// Insertion order, not sorted.
	if got := Repr(m); got != `{"b": 2, "a": 1}` {
		t.Errorf("map: %q", got)
	}
}

func TestRepr_CyclicListTerminates(t *testing.T) {
	l := &interp.List{}
	l.Elems = append(l.Elems, l)
	got := Repr(l)
	if !strings.Contains(got, "...") {
		t.Errorf("cyclic rendering %q has no depth cutoff", got)
	}
}

func TestReprN_TruncatesInTheMiddle(t *testing.T) {
	long := strings.Repeat("a", 50) + strings.Repeat("z", 50)
	got := ReprN(interp.Str(long), 20)
	if w := runewidth.StringWidth(got); w > 23 {
		t.Errorf("width %d after truncation: %q", w, got)
	}
	if !strings.Contains(got, "...") {
		t.Errorf("no ellipsis in %q", got)
	}
	if !strings.HasPrefix(got, `"a`) || !strings.HasSuffix(got, `z"`) {
		t.Errorf("both ends should survive: %q", got)
	}
}

func TestReprN_WideRunesMeasuredInCells(t *testing.T) {
	got := ReprN(interp.Str(strings.Repeat("世", 40)), 20)
	if w := runewidth.StringWidth(got); w > 23 {
		t.Errorf("width %d, want <= 23: %q", w, got)
	}
}

func TestFormat(t *testing.T) {
	params := map[string]string{"p0": "x", "p1": "[1, 2]"}
	got := Format("%(p0)s in %(p1)s", params)
	if got != "x in [1, 2]" {
		t.Errorf("Format = %q", got)
	}
	// Unknown placeholders stay visible rather than vanishing.
	if got := Format("%(p9)s ok", params); got != "%(p9)s ok" {
		t.Errorf("unknown placeholder: %q", got)
	}
	if got := Format("100%% plain", nil); got != "100%% plain" {
		t.Errorf("no placeholders: %q", got)
	}
}

func TestFormatExplanation_Flat(t *testing.T) {
	if got := FormatExplanation("assert 1 == 2"); got != "assert 1 == 2" {
		t.Errorf("flat: %q", got)
	}
}

func TestFormatExplanation_Where(t *testing.T) {
	got := FormatExplanation("assert x\n{x = f()\n}")
	want := "assert x\n +  where x = f()"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatExplanation_SiblingsUseAnd(t *testing.T) {
	got := FormatExplanation("assert a == b\n{a = f()\n}\n{b = g()\n}")
	want := "assert a == b\n +  where a = f()\n +  and   b = g()"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatExplanation_NestedBlocks(t *testing.T) {
	got := FormatExplanation("assert x\n{x = f(y)\n{y = g()\n}\n}")
	want := "assert x\n +  where x = f(y)\n +    where y = g()"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatExplanation_ContinuationIndent(t *testing.T) {
	got := FormatExplanation("assert xs == ys\n~line one\n~line two")
	want := "assert xs == ys\n  line one\n  line two"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatExplanation_EmbeddedNewlinesFold(t *testing.T) {
	got := FormatExplanation("assert \"a\nb\" == s")
	want := "assert \"a\\nb\" == s"
	if got != want {
		t.Errorf("got: %q want: %q", got, want)
	}
}

func TestReprCompare_ListDiff(t *testing.T) {
	left := &interp.List{Elems: []interp.Value{interp.Int(1), interp.Int(2), interp.Int(3)}}
	right := &interp.List{Elems: []interp.Value{interp.Int(1), interp.Int(2), interp.Int(4)}}
	lines := ReprCompare("==", left, right)
	if lines == nil {
		t.Fatal("expected a custom explanation for list equality")
	}
	if !strings.Contains(lines[0], "==") {
		t.Errorf("summary line: %q", lines[0])
	}
	if lines[1] != "Full diff:" {
		t.Errorf("second line: %q", lines[1])
	}
	if len(lines) < 3 {
		t.Error("no diff body")
	}
}

func TestReprCompare_DefaultForScalarsAndOtherOps(t *testing.T) {
	if got := ReprCompare("==", interp.Int(1), interp.Int(2)); got != nil {
		t.Errorf("scalar equality should use the default rendering, got %v", got)
	}
	l := &interp.List{Elems: []interp.Value{interp.Int(1)}}
	if got := ReprCompare("<", l, l); got != nil {
		t.Errorf("ordering should use the default rendering, got %v", got)
	}
}

func TestCallReprCompare_FirstFalseLinkWins(t *testing.T) {
	objs := []interp.Value{interp.Int(1), interp.Int(2), interp.Int(99)}
	got := CallReprCompare(
		[]string{"<", "<"},
		[]bool{true, false},
		[]string{"1 < 2", "2 < 99"},
		objs,
	)
	if got != "2 < 99" {
		t.Errorf("selected %q, want the first failing link", got)
	}
}

func TestCallReprCompare_CustomDiffJoined(t *testing.T) {
	left := &interp.List{Elems: []interp.Value{interp.Int(1)}}
	right := &interp.List{Elems: []interp.Value{interp.Int(2)}}
	got := CallReprCompare(
		[]string{"=="},
		[]bool{false},
		[]string{"default"},
		[]interp.Value{left, right},
	)
	if !strings.Contains(got, "\n~") {
		t.Errorf("custom explanation should join lines with the continuation marker: %q", got)
	}
	if !strings.Contains(got, "Full diff:") {
		t.Errorf("missing diff header: %q", got)
	}
}

func TestFormatBoolOp(t *testing.T) {
	if got := FormatBoolOp([]string{"a", "b"}, false); got != "(a and b)" {
		t.Errorf("and: %q", got)
	}
	if got := FormatBoolOp([]string{"a", "b", "c"}, true); got != "(a or b or c)" {
		t.Errorf("or: %q", got)
	}
}

package rewrite

import (
	"strings"
	"testing"

	"attest/internal/ast"
	"attest/internal/diag"
	"attest/internal/interp"
	"attest/internal/parser"
	"attest/internal/source"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	unit := source.NewVirtual("test_sample.att", []byte(src), 0)
	file, err := parser.ParseUnit(unit, diag.Nop{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return file
}

// runRewritten executes src after rewriting and returns the module scope,
// the helper handle, and the execution error if any.
func runRewritten(t *testing.T, src string) (*interp.Env, *Helpers, error) {
	t.Helper()
	file := parse(t, src)
	if !Rewrite(file) {
		t.Fatal("module unexpectedly opted out")
	}
	code, err := interp.Compile(file)
	if err != nil {
		t.Fatalf("compile rewritten tree: %v", err)
	}
	it := interp.New(diag.Nop{})
	h := Install(it)
	env := it.NewModuleEnv()
	return env, h, it.Exec(code, env)
}

func failure(t *testing.T, err error) *interp.Raise {
	t.Helper()
	r, ok := err.(*interp.Raise)
	if !ok {
		t.Fatalf("err = %v, want *interp.Raise", err)
	}
	if r.Kind != interp.AssertionError {
		t.Fatalf("kind = %s, want %s", r.Kind, interp.AssertionError)
	}
	return r
}

func TestRewrite_InsertsImportsAfterDocAndPragmas(t *testing.T) {
	file := parse(t, `"module doc"
pragma strict
let x = 1
`)
	if !Rewrite(file) {
		t.Fatal("opted out")
	}
	imp1, ok := file.Body[2].(*ast.ImportStmt)
	if !ok || imp1.Path != HelperModulePath || imp1.Alias != "@ar" {
		t.Errorf("body[2] = %#v, want helper import", file.Body[2])
	}
	imp2, ok := file.Body[3].(*ast.ImportStmt)
	if !ok || imp2.Path != BuiltinModulePath || imp2.Alias != "@bi" {
		t.Errorf("body[3] = %#v, want builtin import", file.Body[3])
	}
	if imp1.Span() != file.Body[4].Span() {
		t.Error("imports not stamped with the following statement's span")
	}
}

func TestRewrite_OptOutMarkerDisablesRewriting(t *testing.T) {
	file := parse(t, `"utility module, ATTEST_DONT_REWRITE"
assert 1 == 2
`)
	before := len(file.Body)
	if Rewrite(file) {
		t.Fatal("marker in doc string should opt the module out")
	}
	if len(file.Body) != before {
		t.Error("opted-out module was modified")
	}
}

func TestRewrite_AssertWithMessageUntouched(t *testing.T) {
	file := parse(t, `assert false, "explicit"`)
	Rewrite(file)
	found := false
	for _, s := range file.Body {
		if a, ok := s.(*ast.AssertStmt); ok && a.Msg != nil {
			found = true
		}
	}
	if !found {
		t.Error("assert with an explicit message should survive as-is")
	}
}

func TestRewrite_ReachesNestedBodies(t *testing.T) {
	file := parse(t, `
fn check(x) {
	if x > 0 {
		assert x == 1
	}
	while false {
		assert x == 2
	}
	for i in [1] {
		assert x == 3
	}
}
`)
	Rewrite(file)
	var asserts int
	var walk func(body []ast.Stmt)
	walk = func(body []ast.Stmt) {
		for _, s := range body {
			switch v := s.(type) {
			case *ast.AssertStmt:
				asserts++
			case *ast.FnStmt:
				walk(v.Body)
			case *ast.IfStmt:
				walk(v.Then)
				walk(v.Else)
			case *ast.WhileStmt:
				walk(v.Body)
			case *ast.ForStmt:
				walk(v.Body)
			}
		}
	}
	walk(file.Body)
	if asserts != 0 {
		t.Errorf("%d bare asserts survived in nested bodies", asserts)
	}
}

func TestRewrite_SynthesizedNamesAreUnlexable(t *testing.T) {
	file := parse(t, `assert [1] == [2]`)
	Rewrite(file)
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if as, ok := n.(*ast.AssignStmt); ok {
			if name, ok := as.Target.(*ast.NameExpr); ok {
				if !strings.HasPrefix(name.Name, "@") {
					t.Errorf("synthesized assignment to lexable name %q", name.Name)
				}
			}
		}
		for _, k := range ast.Children(n, nil) {
			walk(k)
		}
	}
	for _, s := range file.Body {
		walk(s)
	}
}

func TestRewrite_StampsExpansionWithAssertSpan(t *testing.T) {
	file := parse(t, `let x = 1
assert x == 2
`)
	want := file.Body[1].Span()
	Rewrite(file)
	// Everything after the two imports came from the assert.
	for _, s := range file.Body[3:] {
		if s.Span() != want {
			t.Errorf("expansion statement span %v, want assert span %v", s.Span(), want)
		}
	}
}

func TestRewritten_PassingAssertIsLazyAndClean(t *testing.T) {
	env, h, err := runRewritten(t, `
let xs = [1, 2, 3]
assert len(xs) == 3 and xs[0] < xs[1] < xs[2]
assert "b" in "abc"
`)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if h.ReprCalls != 0 {
		t.Errorf("%d value renderings on a passing run, want none", h.ReprCalls)
	}
	for _, name := range env.Names() {
		if strings.HasPrefix(name, "@t") || strings.HasPrefix(name, "@fmt") {
			t.Errorf("temporary %q leaked out of a passing assert", name)
		}
	}
}

func TestRewritten_FailureShowsIntermediateValues(t *testing.T) {
	_, h, err := runRewritten(t, `
fn double(n) {
	return n + n
}
let x = 3
assert double(x) == 7
`)
	r := failure(t, err)
	want := "assert 6 == 7\n +  where 6 = <fn double>(3)"
	if r.Msg != want {
		t.Errorf("explanation:\n%s\nwant:\n%s", r.Msg, want)
	}
	if h.ReprCalls == 0 {
		t.Error("failure should render values")
	}
}

func TestRewritten_AttributeChainExplained(t *testing.T) {
	_, _, err := runRewritten(t, `
let m = {"size": 3}
assert m.size == 4
`)
	r := failure(t, err)
	if !strings.Contains(r.Msg, "assert 3 == 4") {
		t.Errorf("missing resolved comparison in %q", r.Msg)
	}
	if !strings.Contains(r.Msg, ".size") {
		t.Errorf("missing attribute provenance in %q", r.Msg)
	}
}

func TestRewritten_CompareChainReportsFirstFalseLink(t *testing.T) {
	_, _, err := runRewritten(t, `assert 1 < 5 < 3`)
	r := failure(t, err)
	if r.Msg != "assert 5 < 3" {
		t.Errorf("explanation = %q, want the first failing link", r.Msg)
	}
}

func TestRewritten_BoolChainShortCircuits(t *testing.T) {
	env, _, err := runRewritten(t, `
called = false
fn boom() {
	called = true
	return true
}
assert false and boom()
`)
	r := failure(t, err)
	if v, _ := env.Get("called"); interp.Truthy(v) {
		t.Error("operand after the deciding one was evaluated")
	}
	if strings.Contains(r.Msg, "boom") && strings.Contains(r.Msg, "<fn") {
		t.Errorf("explanation includes an unevaluated operand: %q", r.Msg)
	}
	if r.Msg != "assert (false)" {
		t.Errorf("explanation = %q", r.Msg)
	}
}

func TestRewritten_OrChainIsLazyWhenDecided(t *testing.T) {
	env, h, err := runRewritten(t, `
called = false
fn fallback() {
	called = true
	return false
}
assert true or fallback()
`)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if v, _ := env.Get("called"); interp.Truthy(v) {
		t.Error("operand after the deciding one was evaluated")
	}
	if h.ReprCalls != 0 {
		t.Errorf("%d value renderings on a passing run, want none", h.ReprCalls)
	}
}

func TestRewritten_ShortCircuitSkipsComparisonFormatting(t *testing.T) {
	_, _, err := runRewritten(t, `assert false and 1 == 2`)
	r := failure(t, err)
	if r.Msg != "assert (false)" {
		t.Errorf("explanation = %q", r.Msg)
	}
}

func TestRewritten_ShortCircuitSkipsNestedChainFormatting(t *testing.T) {
	_, _, err := runRewritten(t, `assert false and (true or true)`)
	r := failure(t, err)
	if r.Msg != "assert (false)" {
		t.Errorf("explanation = %q", r.Msg)
	}
}

func TestRewritten_OrChainExplained(t *testing.T) {
	_, _, err := runRewritten(t, `assert false or 0`)
	r := failure(t, err)
	if r.Msg != "assert (false or 0)" {
		t.Errorf("explanation = %q", r.Msg)
	}
}

func TestRewritten_SideEffectsRunOnce(t *testing.T) {
	env, _, err := runRewritten(t, `
n = 0
fn inc() {
	n = n + 1
	return 2
}
assert inc() == 3
`)
	failure(t, err)
	v, _ := env.Get("n")
	if !interp.Equal(v, interp.Int(1)) {
		t.Errorf("side-effecting call ran %s times, want 1", interp.Literal(v))
	}
}

func TestRewritten_ListEqualityGetsDiff(t *testing.T) {
	_, _, err := runRewritten(t, `assert [1, 2, 3] == [1, 2, 4]`)
	r := failure(t, err)
	if !strings.Contains(r.Msg, "Full diff:") {
		t.Errorf("no structural diff in %q", r.Msg)
	}
}

func TestRewritten_BareNameShowsValueWhenBound(t *testing.T) {
	_, _, err := runRewritten(t, `
let flag = false
assert flag
`)
	r := failure(t, err)
	if r.Msg != "assert false" {
		t.Errorf("explanation = %q, want the bound value", r.Msg)
	}
}

func TestRewritten_UnaryAndBinaryExplained(t *testing.T) {
	_, _, err := runRewritten(t, `
let a = 2
let b = 3
assert not (a + b == 5)
`)
	r := failure(t, err)
	if !strings.Contains(r.Msg, "not ") {
		t.Errorf("unary operator missing from %q", r.Msg)
	}
	if !strings.Contains(r.Msg, "(2 + 3)") {
		t.Errorf("binary operand values missing from %q", r.Msg)
	}
}

func TestRewritten_BinaryResultShownAgainstLiteral(t *testing.T) {
	_, _, err := runRewritten(t, `assert 1 + 1 == 3`)
	r := failure(t, err)
	want := "assert 2 == 3\n +  where 2 = (1 + 1)"
	if r.Msg != want {
		t.Errorf("explanation:\n%s\nwant:\n%s", r.Msg, want)
	}
}

func TestRewritten_SequentialAssertsIndependent(t *testing.T) {
	env, h, err := runRewritten(t, `
assert 1 == 1
assert 2 == 2
assert 3 == 3
`)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if h.ReprCalls != 0 {
		t.Errorf("repr calls = %d", h.ReprCalls)
	}
	for _, name := range env.Names() {
		if strings.HasPrefix(name, "@t") {
			t.Errorf("leaked temporary %q", name)
		}
	}
}

package interp

import (
	"bytes"
	"strings"
	"testing"

	"attest/internal/diag"
	"attest/internal/parser"
	"attest/internal/source"
)

func runScript(t *testing.T, src string) (*Interp, *Env, error) {
	t.Helper()
	unit := source.NewVirtual("script.att", []byte(src), 0)
	file, err := parser.ParseUnit(unit, diag.Nop{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := Compile(file)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	it := New(diag.Nop{})
	env := it.NewModuleEnv()
	return it, env, it.Exec(code, env)
}

func mustRun(t *testing.T, src string) *Env {
	t.Helper()
	_, env, err := runScript(t, src)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return env
}

func bindingInt(t *testing.T, env *Env, name string, want int64) {
	t.Helper()
	v, ok := env.Get(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}
	n, ok := v.(Int)
	if !ok {
		t.Fatalf("%s = %s, want int", name, Literal(v))
	}
	if int64(n) != want {
		t.Errorf("%s = %d, want %d", name, int64(n), want)
	}
}

func TestExec_LetAndArithmetic(t *testing.T) {
	env := mustRun(t, `
let a = 2 + 3 * 4
let b = (2 + 3) * 4
let c = 7 % 3
let d = 10 / 2
let e = 1 << 4
`)
	bindingInt(t, env, "a", 14)
	bindingInt(t, env, "b", 20)
	bindingInt(t, env, "c", 1)
	bindingInt(t, env, "d", 5)
	bindingInt(t, env, "e", 16)
}

func TestExec_AssignDefinesWhenUnbound(t *testing.T) {
	env := mustRun(t, `
x = 41
x = x + 1
`)
	bindingInt(t, env, "x", 42)
}

func TestExec_FnCallReturnAndClosure(t *testing.T) {
	env := mustRun(t, `
fn adder(n) {
	fn add(m) {
		return n + m
	}
	return add
}
let plus5 = adder(5)
let r = plus5(37)
`)
	bindingInt(t, env, "r", 42)
}

func TestExec_CallKwAndSpread(t *testing.T) {
	env := mustRun(t, `
fn f(a, b, c) {
	return a * 100 + b * 10 + c
}
let x = f(1, c: 3, b: 2)
let rest = [2, 3]
let y = f(1, ...rest)
`)
	bindingInt(t, env, "x", 123)
	bindingInt(t, env, "y", 123)
}

func TestExec_BoolChainIsOperandValued(t *testing.T) {
	env := mustRun(t, `
let a = 0 or "fallback"
let b = 1 and 2 and 3
let c = nothing and 99
`)
	if v, _ := env.Get("a"); !Equal(v, Str("fallback")) {
		t.Errorf("a = %s, want \"fallback\"", Literal(v))
	}
	bindingInt(t, env, "b", 3)
	if v, _ := env.Get("c"); !Equal(v, Nothing{}) {
		t.Errorf("c = %s, want nothing", Literal(v))
	}
}

func TestExec_ChainedCompareEvaluatesOperandsOnce(t *testing.T) {
	env := mustRun(t, `
n = 0
fn bump() {
	n = n + 1
	return 5
}
let ok = 1 < bump() < 10
let no = 10 < bump() < bump()
`)
	if v, _ := env.Get("ok"); !Equal(v, Bool(true)) {
		t.Errorf("ok = %s, want true", Literal(v))
	}
	if v, _ := env.Get("no"); !Equal(v, Bool(false)) {
		t.Errorf("no = %s, want false", Literal(v))
	}
	// bump runs once for the true chain and once for the short-circuited
	// false chain (its second operand is never reached).
	bindingInt(t, env, "n", 2)
}

func TestExec_ControlFlow(t *testing.T) {
	env := mustRun(t, `
let total = 0
for i in range(10) {
	if i == 7 {
		break
	}
	if i % 2 == 1 {
		continue
	}
	total = total + i
}
let spins = 0
while spins < 3 {
	spins = spins + 1
}
`)
	bindingInt(t, env, "total", 12) // 0+2+4+6
	bindingInt(t, env, "spins", 3)
}

func TestExec_Containers(t *testing.T) {
	env := mustRun(t, `
let xs = [1, 2]
xs.append(3)
xs[0] = 10
let m = {"a": 1}
m["b"] = 2
let hit = "b" in m
let n = len(xs) + len(m)
let first = xs[0]
let last = xs[-1]
`)
	bindingInt(t, env, "n", 5)
	bindingInt(t, env, "first", 10)
	bindingInt(t, env, "last", 3)
	if v, _ := env.Get("hit"); !Equal(v, Bool(true)) {
		t.Errorf("hit = %s, want true", Literal(v))
	}
}

func TestExec_AssertFailureRaises(t *testing.T) {
	_, _, err := runScript(t, `
let left = 1
assert left == 2
`)
	r, ok := err.(*Raise)
	if !ok {
		t.Fatalf("err = %v, want *Raise", err)
	}
	if r.Kind != AssertionError {
		t.Errorf("kind = %s, want %s", r.Kind, AssertionError)
	}
	if !strings.Contains(r.Msg, "left == 2") {
		t.Errorf("message %q does not quote the failing test", r.Msg)
	}
	if r.Path != "script.att" || r.Pos.Line != 3 {
		t.Errorf("position = %s:%s, want script.att:3", r.Path, r.Pos)
	}
}

func TestExec_AssertWithMessage(t *testing.T) {
	_, _, err := runScript(t, `assert false, "broken invariant"`)
	r, ok := err.(*Raise)
	if !ok {
		t.Fatalf("err = %v, want *Raise", err)
	}
	if r.Msg != "broken invariant" {
		t.Errorf("message = %q, want the explicit message", r.Msg)
	}
}

func TestExec_RaiseErrorValue(t *testing.T) {
	_, _, err := runScript(t, `raise error("KeyError", "missing thing")`)
	r, ok := err.(*Raise)
	if !ok {
		t.Fatalf("err = %v, want *Raise", err)
	}
	if r.Kind != "KeyError" || r.Msg != "missing thing" {
		t.Errorf("raise = %s: %s", r.Kind, r.Msg)
	}
}

func TestExec_DelAndNameErrors(t *testing.T) {
	env := mustRun(t, `
let x = 1
del x
`)
	if env.Bound("x") {
		t.Error("x still bound after del")
	}

	_, _, err := runScript(t, `del ghost`)
	if r, ok := err.(*Raise); !ok || r.Kind != NameError {
		t.Errorf("del of unbound name: err = %v, want NameError", err)
	}

	_, _, err = runScript(t, `let y = ghost + 1`)
	if r, ok := err.(*Raise); !ok || r.Kind != NameError {
		t.Errorf("unbound read: err = %v, want NameError", err)
	}
}

func TestExec_NativeBuiltinsModule(t *testing.T) {
	env := mustRun(t, `
import "attest:builtins" as bi
let x = 1
let yes = bi.bound("x")
let no = bi.bound("ghost")
`)
	if v, _ := env.Get("yes"); !Equal(v, Bool(true)) {
		t.Error("bound(\"x\") should be true")
	}
	if v, _ := env.Get("no"); !Equal(v, Bool(false)) {
		t.Error("bound(\"ghost\") should be false")
	}
}

func TestExec_PrintGoesToStdout(t *testing.T) {
	unit := source.NewVirtual("p.att", []byte(`print("hello", 42)`), 0)
	file, err := parser.ParseUnit(unit, diag.Nop{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := Compile(file)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	it := New(diag.Nop{})
	var buf bytes.Buffer
	it.Stdout = &buf
	if err := it.Exec(code, it.NewModuleEnv()); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if got := buf.String(); got != "hello 42\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestExec_Ternary(t *testing.T) {
	env := mustRun(t, `
let a = 1 < 2 ? 10 : 20
let b = 1 > 2 ? 10 : 20
`)
	bindingInt(t, env, "a", 10)
	bindingInt(t, env, "b", 20)
}

func TestCompile_PlacementChecks(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"break outside loop", `break`},
		{"continue outside loop", `continue`},
		{"late pragma", "let x = 1\npragma strict_asserts"},
		{"dup params", "fn f(a, a) {\n\treturn a\n}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unit := source.NewVirtual("bad.att", []byte(tc.src), 0)
			file, err := parser.ParseUnit(unit, diag.Nop{})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if _, err := Compile(file); err == nil {
				t.Error("Compile accepted invalid placement")
			}
		})
	}
}

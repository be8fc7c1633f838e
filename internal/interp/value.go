// Package interp executes compiled attest scripts.
//
// The runtime is a plain tree-walking evaluator over the ast package.
// Execution of one module is strictly sequential; the only shared state is
// the interpreter's module registry, written once per successful load.
package interp

import (
	"fmt"
	"sort"
	"strings"

	"attest/internal/ast"
)

// ValueKind discriminates runtime values.
type ValueKind uint8

const (
	KindNothing ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindMap
	KindFunc
	KindNative
	KindModule
	KindError
)

func (k ValueKind) String() string {
	switch k {
	case KindNothing:
		return "nothing"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindFunc:
		return "fn"
	case KindNative:
		return "native fn"
	case KindModule:
		return "module"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Value is any attest runtime value.
type Value interface {
	Kind() ValueKind
}

type Nothing struct{}

type Bool bool

type Int int64

type Float float64

type Str string

// List is a mutable ordered sequence.
type List struct {
	Elems []Value
}

// Map is a mutable string-keyed map that preserves insertion order.
type Map struct {
	keys  []string
	items map[string]Value
}

// Func is a user-defined function closing over its defining environment.
type Func struct {
	Name   string
	Params []string
	Body   []ast.Stmt
	Env    *Env
	Code   *Code // defining module, for position reporting
}

// NativeFn receives the caller's environment so helpers like bound() can
// inspect the scope the rewritten assertion runs in.
type NativeFn func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error)

// Native is a function implemented in Go.
type Native struct {
	Name string
	Fn   NativeFn
}

// ErrorVal is a raisable value: `raise` turns it into a Raise of the same
// kind. The rewriter's synthesized failures construct these.
type ErrorVal struct {
	ErrKind string
	Msg     string
}

func (Nothing) Kind() ValueKind   { return KindNothing }
func (Bool) Kind() ValueKind     { return KindBool }
func (Int) Kind() ValueKind      { return KindInt }
func (Float) Kind() ValueKind    { return KindFloat }
func (Str) Kind() ValueKind      { return KindStr }
func (*List) Kind() ValueKind    { return KindList }
func (*Map) Kind() ValueKind     { return KindMap }
func (*Func) Kind() ValueKind    { return KindFunc }
func (*Native) Kind() ValueKind  { return KindNative }
func (*Module) Kind() ValueKind  { return KindModule }
func (*ErrorVal) Kind() ValueKind { return KindError }

func NewMap() *Map {
	return &Map{items: make(map[string]Value)}
}

func (m *Map) Set(key string, v Value) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *Map) Keys() []string {
	return m.keys
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Truthy follows the usual dynamic-language rules: nothing, false, zero,
// and empty containers are false, everything else true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Nothing:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case Str:
		return x != ""
	case *List:
		return len(x.Elems) > 0
	case *Map:
		return x.Len() > 0
	default:
		return true
	}
}

// Equal is deep value equality. Ints and floats compare across kinds.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Nothing:
		_, ok := b.(Nothing)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := b.(type) {
		case Int:
			return x == Float(y)
		case Float:
			return x == y
		}
		return false
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			bv, ok := y.Get(k)
			if !ok || !Equal(x.items[k], bv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Display renders a value the way str() and print do: strings bare,
// everything else in literal form.
func Display(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Literal(v)
}

// Literal renders a value in source-literal form: strings quoted,
// containers recursively. Map keys are shown in insertion order.
func Literal(v Value) string {
	switch x := v.(type) {
	case Nothing:
		return "nothing"
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case Int:
		return fmt.Sprintf("%d", int64(x))
	case Float:
		s := fmt.Sprintf("%g", float64(x))
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case Str:
		return quote(string(x))
	case *List:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = Literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		parts := make([]string, 0, x.Len())
		for _, k := range x.keys {
			parts = append(parts, quote(k)+": "+Literal(x.items[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Func:
		return fmt.Sprintf("<fn %s>", x.Name)
	case *Native:
		return fmt.Sprintf("<native fn %s>", x.Name)
	case *Module:
		return fmt.Sprintf("<module %s>", x.Name)
	case *ErrorVal:
		return fmt.Sprintf("<%s: %s>", x.ErrKind, x.Msg)
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// SortedKeys returns a map's keys in sorted order, for stable rendering in
// diffs.
func (m *Map) SortedKeys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	sort.Strings(out)
	return out
}

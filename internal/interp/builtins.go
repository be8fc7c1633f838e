package interp

import (
	"fmt"
	"strings"
)

func native(name string, fn NativeFn) *Native {
	return &Native{Name: name, Fn: fn}
}

func wantArgs(name string, args []Value, n int) error {
	if len(args) != n {
		return raisef(TypeError, "%s() takes %d arguments, got %d", name, n, len(args))
	}
	return nil
}

// coreEnv builds the global scope every module environment chains to.
func coreEnv() *Env {
	env := NewEnv(nil)

	env.Define("len", native("len", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if err := wantArgs("len", args, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case Str:
			return Int(len(x)), nil
		case *List:
			return Int(len(x.Elems)), nil
		case *Map:
			return Int(x.Len()), nil
		default:
			return nil, raisef(TypeError, "%s has no length", args[0].Kind())
		}
	}))

	env.Define("str", native("str", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if err := wantArgs("str", args, 1); err != nil {
			return nil, err
		}
		return Str(Display(args[0])), nil
	}))

	env.Define("repr", native("repr", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if err := wantArgs("repr", args, 1); err != nil {
			return nil, err
		}
		return Str(Literal(args[0])), nil
	}))

	env.Define("type", native("type", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if err := wantArgs("type", args, 1); err != nil {
			return nil, err
		}
		return Str(args[0].Kind().String()), nil
	}))

	env.Define("print", native("print", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Display(a)
		}
		fmt.Fprintln(it.Stdout, strings.Join(parts, " "))
		return Nothing{}, nil
	}))

	env.Define("range", native("range", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		var start, stop Int
		switch len(args) {
		case 1:
			n, ok := args[0].(Int)
			if !ok {
				return nil, raisef(TypeError, "range() needs int arguments")
			}
			stop = n
		case 2:
			a, aok := args[0].(Int)
			b, bok := args[1].(Int)
			if !aok || !bok {
				return nil, raisef(TypeError, "range() needs int arguments")
			}
			start, stop = a, b
		default:
			return nil, raisef(TypeError, "range() takes 1 or 2 arguments, got %d", len(args))
		}
		out := &List{}
		for i := start; i < stop; i++ {
			out.Elems = append(out.Elems, i)
		}
		return out, nil
	}))

	env.Define("error", native("error", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		switch len(args) {
		case 1:
			msg, ok := args[0].(Str)
			if !ok {
				return nil, raisef(TypeError, "error() message must be str")
			}
			return &ErrorVal{ErrKind: GenericError, Msg: string(msg)}, nil
		case 2:
			kind, kok := args[0].(Str)
			msg, mok := args[1].(Str)
			if !kok || !mok {
				return nil, raisef(TypeError, "error() kind and message must be str")
			}
			return &ErrorVal{ErrKind: string(kind), Msg: string(msg)}, nil
		default:
			return nil, raisef(TypeError, "error() takes 1 or 2 arguments, got %d", len(args))
		}
	}))

	return env
}

// BuiltinsModule is the "attest:builtins" native module. Rewritten code
// imports it to reach scope introspection that plain scripts do not need.
func BuiltinsModule() *Module {
	env := NewEnv(nil)
	env.Define("bound", native("bound", func(it *Interp, caller *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if err := wantArgs("bound", args, 1); err != nil {
			return nil, err
		}
		name, ok := args[0].(Str)
		if !ok {
			return nil, raisef(TypeError, "bound() name must be str")
		}
		return Bool(caller.Bound(string(name))), nil
	}))
	return &Module{Name: "attest:builtins", Env: env}
}

func listMethod(l *List, name string) *Native {
	switch name {
	case "append":
		return native("append", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
			if err := wantArgs("append", args, 1); err != nil {
				return nil, err
			}
			l.Elems = append(l.Elems, args[0])
			return Nothing{}, nil
		})
	case "pop":
		return native("pop", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
			if err := wantArgs("pop", args, 0); err != nil {
				return nil, err
			}
			if len(l.Elems) == 0 {
				return nil, raisef(IndexError, "pop from empty list")
			}
			last := l.Elems[len(l.Elems)-1]
			l.Elems = l.Elems[:len(l.Elems)-1]
			return last, nil
		})
	}
	return nil
}

func mapMethod(m *Map, name string) *Native {
	switch name {
	case "keys":
		return native("keys", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
			if err := wantArgs("keys", args, 0); err != nil {
				return nil, err
			}
			out := &List{}
			for _, k := range m.Keys() {
				out.Elems = append(out.Elems, Str(k))
			}
			return out, nil
		})
	case "has":
		return native("has", func(it *Interp, env *Env, args []Value, kwargs map[string]Value) (Value, error) {
			if err := wantArgs("has", args, 1); err != nil {
				return nil, err
			}
			k, ok := args[0].(Str)
			if !ok {
				return nil, raisef(TypeError, "has() key must be str")
			}
			_, found := m.Get(string(k))
			return Bool(found), nil
		})
	}
	return nil
}

package interp

import (
	"path/filepath"

	"attest/internal/ast"
	"attest/internal/source"
)

// Control-flow signals travelling as errors. They never escape the
// construct that consumes them.
type breakSignal struct{}
type continueSignal struct{}
type returnSignal struct{ val Value }

func (breakSignal) Error() string    { return "break" }
func (continueSignal) Error() string { return "continue" }
func (*returnSignal) Error() string  { return "return" }

// Exec runs a module body in env. A top-level return stops execution
// quietly, everything else propagates as a *Raise.
func (it *Interp) Exec(code *Code, env *Env) error {
	for _, s := range code.File.Body {
		if err := it.evalStmt(code, env, s); err != nil {
			if _, ok := err.(*returnSignal); ok {
				return nil
			}
			return err
		}
	}
	return nil
}

func (it *Interp) execBody(code *Code, env *Env, body []ast.Stmt) error {
	for _, s := range body {
		if err := it.evalStmt(code, env, s); err != nil {
			return err
		}
	}
	return nil
}

func fail(code *Code, sp source.Span, kind, format string, args ...any) error {
	return locate(raisef(kind, format, args...), code, sp)
}

func (it *Interp) evalStmt(code *Code, env *Env, s ast.Stmt) error {
	switch v := s.(type) {
	case *ast.ExprStmt:
		_, err := it.evalExpr(code, env, v.X)
		return err

	case *ast.LetStmt:
		val, err := it.evalExpr(code, env, v.Value)
		if err != nil {
			return err
		}
		env.Define(v.Name, val)
		return nil

	case *ast.AssignStmt:
		val, err := it.evalExpr(code, env, v.Value)
		if err != nil {
			return err
		}
		return it.assign(code, env, v.Target, val)

	case *ast.AssertStmt:
		test, err := it.evalExpr(code, env, v.Test)
		if err != nil {
			return err
		}
		if Truthy(test) {
			return nil
		}
		msg := "assert " + ast.Text(v.Test)
		if v.Msg != nil {
			mv, merr := it.evalExpr(code, env, v.Msg)
			if merr != nil {
				return merr
			}
			msg = Display(mv)
		}
		return fail(code, v.Span(), AssertionError, "%s", msg)

	case *ast.IfStmt:
		cond, err := it.evalExpr(code, env, v.Cond)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return it.execBody(code, env, v.Then)
		}
		return it.execBody(code, env, v.Else)

	case *ast.WhileStmt:
		for {
			cond, err := it.evalExpr(code, env, v.Cond)
			if err != nil {
				return err
			}
			if !Truthy(cond) {
				return nil
			}
			if err := it.execBody(code, env, v.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}

	case *ast.ForStmt:
		iter, err := it.evalExpr(code, env, v.Iter)
		if err != nil {
			return err
		}
		items, err := iterate(code, v.Iter.Span(), iter)
		if err != nil {
			return err
		}
		for _, item := range items {
			env.Define(v.Var, item)
			if err := it.execBody(code, env, v.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}
		return nil

	case *ast.FnStmt:
		env.Define(v.Name, &Func{Name: v.Name, Params: v.Params, Body: v.Body, Env: env, Code: code})
		return nil

	case *ast.ReturnStmt:
		var val Value = Nothing{}
		if v.Value != nil {
			rv, err := it.evalExpr(code, env, v.Value)
			if err != nil {
				return err
			}
			val = rv
		}
		return &returnSignal{val: val}

	case *ast.BreakStmt:
		return breakSignal{}

	case *ast.ContinueStmt:
		return continueSignal{}

	case *ast.ImportStmt:
		mod, err := it.Import(v.Path, filepath.Dir(code.Path))
		if err != nil {
			return locate(err, code, v.Span())
		}
		env.Define(v.Alias, mod)
		return nil

	case *ast.RaiseStmt:
		val, err := it.evalExpr(code, env, v.X)
		if err != nil {
			return err
		}
		if ev, ok := val.(*ErrorVal); ok {
			return fail(code, v.Span(), ev.ErrKind, "%s", ev.Msg)
		}
		return fail(code, v.Span(), GenericError, "%s", Display(val))

	case *ast.PragmaStmt:
		// Declarations only affect parsing-time behavior.
		return nil

	case *ast.DelStmt:
		for _, name := range v.Names {
			if !env.Delete(name) {
				return fail(code, v.Span(), NameError, "name %q is not bound", name)
			}
		}
		return nil

	default:
		return fail(code, s.Span(), GenericError, "unsupported statement")
	}
}

func (it *Interp) assign(code *Code, env *Env, target ast.Expr, val Value) error {
	switch t := target.(type) {
	case *ast.NameExpr:
		env.Set(t.Name, val)
		return nil
	case *ast.AttrExpr:
		obj, err := it.evalExpr(code, env, t.X)
		if err != nil {
			return err
		}
		m, ok := obj.(*Map)
		if !ok {
			return fail(code, t.Span(), TypeError, "cannot set attribute on %s", obj.Kind())
		}
		m.Set(t.Name, val)
		return nil
	case *ast.IndexExpr:
		obj, err := it.evalExpr(code, env, t.X)
		if err != nil {
			return err
		}
		idx, err := it.evalExpr(code, env, t.Index)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *List:
			i, err := listIndex(code, t.Span(), o, idx)
			if err != nil {
				return err
			}
			o.Elems[i] = val
			return nil
		case *Map:
			k, ok := idx.(Str)
			if !ok {
				return fail(code, t.Span(), TypeError, "map key must be str, not %s", idx.Kind())
			}
			o.Set(string(k), val)
			return nil
		default:
			return fail(code, t.Span(), TypeError, "%s is not indexable", obj.Kind())
		}
	default:
		return fail(code, target.Span(), TypeError, "invalid assignment target")
	}
}

func (it *Interp) evalExpr(code *Code, env *Env, e ast.Expr) (Value, error) {
	switch v := e.(type) {
	case *ast.NameExpr:
		val, ok := env.Get(v.Name)
		if !ok {
			return nil, fail(code, v.Span(), NameError, "name %q is not bound", v.Name)
		}
		return val, nil

	case *ast.NothingLit:
		return Nothing{}, nil
	case *ast.BoolLit:
		return Bool(v.V), nil
	case *ast.IntLit:
		return Int(v.V), nil
	case *ast.FloatLit:
		return Float(v.V), nil
	case *ast.StrLit:
		return Str(v.V), nil

	case *ast.ListExpr:
		out := &List{Elems: make([]Value, 0, len(v.Elems))}
		for _, el := range v.Elems {
			val, err := it.evalExpr(code, env, el)
			if err != nil {
				return nil, err
			}
			out.Elems = append(out.Elems, val)
		}
		return out, nil

	case *ast.MapExpr:
		out := NewMap()
		for i, ke := range v.Keys {
			kv, err := it.evalExpr(code, env, ke)
			if err != nil {
				return nil, err
			}
			k, ok := kv.(Str)
			if !ok {
				return nil, fail(code, ke.Span(), TypeError, "map key must be str, not %s", kv.Kind())
			}
			val, err := it.evalExpr(code, env, v.Vals[i])
			if err != nil {
				return nil, err
			}
			out.Set(string(k), val)
		}
		return out, nil

	case *ast.UnaryExpr:
		x, err := it.evalExpr(code, env, v.X)
		if err != nil {
			return nil, err
		}
		return evalUnary(code, v, x)

	case *ast.BinaryExpr:
		l, err := it.evalExpr(code, env, v.L)
		if err != nil {
			return nil, err
		}
		r, err := it.evalExpr(code, env, v.R)
		if err != nil {
			return nil, err
		}
		return evalBinary(code, v, l, r)

	case *ast.BoolExpr:
		// Operand-valued short circuit: the chain's value is the last
		// operand evaluated, not a bool.
		var last Value = Nothing{}
		for i, operand := range v.Vals {
			val, err := it.evalExpr(code, env, operand)
			if err != nil {
				return nil, err
			}
			last = val
			if i == len(v.Vals)-1 {
				break
			}
			if v.Op == ast.OpAnd && !Truthy(val) {
				return val, nil
			}
			if v.Op == ast.OpOr && Truthy(val) {
				return val, nil
			}
		}
		return last, nil

	case *ast.CompareExpr:
		// Each operand evaluates exactly once, left to right, and the
		// chain stops at the first false link.
		left, err := it.evalExpr(code, env, v.Left)
		if err != nil {
			return nil, err
		}
		for i, op := range v.Ops {
			right, err := it.evalExpr(code, env, v.Rights[i])
			if err != nil {
				return nil, err
			}
			ok, err := compare(code, v.Rights[i].Span(), op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return Bool(false), nil
			}
			left = right
		}
		return Bool(true), nil

	case *ast.CondExpr:
		cond, err := it.evalExpr(code, env, v.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return it.evalExpr(code, env, v.Then)
		}
		return it.evalExpr(code, env, v.Else)

	case *ast.AttrExpr:
		obj, err := it.evalExpr(code, env, v.X)
		if err != nil {
			return nil, err
		}
		return attr(code, v, obj)

	case *ast.IndexExpr:
		obj, err := it.evalExpr(code, env, v.X)
		if err != nil {
			return nil, err
		}
		idx, err := it.evalExpr(code, env, v.Index)
		if err != nil {
			return nil, err
		}
		return index(code, v, obj, idx)

	case *ast.CallExpr:
		fn, err := it.evalExpr(code, env, v.Fn)
		if err != nil {
			return nil, err
		}
		args := make([]Value, 0, len(v.Args))
		for _, a := range v.Args {
			val, err := it.evalExpr(code, env, a)
			if err != nil {
				return nil, err
			}
			args = append(args, val)
		}
		if v.Spread != nil {
			sv, err := it.evalExpr(code, env, v.Spread)
			if err != nil {
				return nil, err
			}
			sl, ok := sv.(*List)
			if !ok {
				return nil, fail(code, v.Spread.Span(), TypeError, "spread argument must be a list, not %s", sv.Kind())
			}
			args = append(args, sl.Elems...)
		}
		var kwargs map[string]Value
		if len(v.KwNames) > 0 {
			kwargs = make(map[string]Value, len(v.KwNames))
			for i, name := range v.KwNames {
				val, err := it.evalExpr(code, env, v.KwVals[i])
				if err != nil {
					return nil, err
				}
				kwargs[name] = val
			}
		}
		res, err := it.Call(env, fn, args, kwargs)
		if err != nil {
			return nil, locate(err, code, v.Span())
		}
		return res, nil

	default:
		return nil, fail(code, e.Span(), GenericError, "unsupported expression")
	}
}

// Call invokes a callable with already-evaluated arguments. env is the
// caller's scope; natives receive it so scope-inspecting helpers work.
func (it *Interp) Call(env *Env, fn Value, args []Value, kwargs map[string]Value) (Value, error) {
	switch f := fn.(type) {
	case *Native:
		return f.Fn(it, env, args, kwargs)
	case *Func:
		if len(args) > len(f.Params) {
			return nil, raisef(TypeError, "%s() takes %d arguments, got %d", f.Name, len(f.Params), len(args))
		}
		local := NewEnv(f.Env)
		for i, p := range f.Params {
			if i < len(args) {
				local.Define(p, args[i])
				continue
			}
			if v, ok := kwargs[p]; ok {
				local.Define(p, v)
				delete(kwargs, p)
				continue
			}
			return nil, raisef(TypeError, "%s() missing argument %q", f.Name, p)
		}
		for name := range kwargs {
			return nil, raisef(TypeError, "%s() got unexpected keyword argument %q", f.Name, name)
		}
		if err := it.execBody(f.Code, local, f.Body); err != nil {
			if rs, ok := err.(*returnSignal); ok {
				return rs.val, nil
			}
			return nil, err
		}
		return Nothing{}, nil
	default:
		return nil, raisef(TypeError, "%s is not callable", fn.Kind())
	}
}

func evalUnary(code *Code, v *ast.UnaryExpr, x Value) (Value, error) {
	switch v.Op {
	case ast.OpNot:
		return Bool(!Truthy(x)), nil
	case ast.OpNeg:
		switch n := x.(type) {
		case Int:
			return -n, nil
		case Float:
			return -n, nil
		}
	case ast.OpPos:
		switch x.(type) {
		case Int, Float:
			return x, nil
		}
	case ast.OpInvert:
		if n, ok := x.(Int); ok {
			return ^n, nil
		}
	}
	return nil, fail(code, v.Span(), TypeError, "bad operand type for unary %s: %s", v.Op, x.Kind())
}

func evalBinary(code *Code, v *ast.BinaryExpr, l, r Value) (Value, error) {
	if li, lok := l.(Int); lok {
		if ri, rok := r.(Int); rok {
			return intBinary(code, v, li, ri)
		}
	}
	if lf, lok := asFloat(l); lok {
		if rf, rok := asFloat(r); rok {
			return floatBinary(code, v, lf, rf)
		}
	}
	switch v.Op {
	case ast.OpAdd:
		if ls, ok := l.(Str); ok {
			if rs, ok := r.(Str); ok {
				return ls + rs, nil
			}
		}
		if ll, ok := l.(*List); ok {
			if rl, ok := r.(*List); ok {
				out := &List{Elems: make([]Value, 0, len(ll.Elems)+len(rl.Elems))}
				out.Elems = append(out.Elems, ll.Elems...)
				out.Elems = append(out.Elems, rl.Elems...)
				return out, nil
			}
		}
	case ast.OpMul:
		if ls, ok := l.(Str); ok {
			if n, ok := r.(Int); ok && n >= 0 {
				out := make([]byte, 0, len(ls)*int(n))
				for i := Int(0); i < n; i++ {
					out = append(out, ls...)
				}
				return Str(out), nil
			}
		}
	}
	return nil, fail(code, v.Span(), TypeError, "unsupported operand types for %s: %s and %s", v.Op, l.Kind(), r.Kind())
}

func intBinary(code *Code, v *ast.BinaryExpr, l, r Int) (Value, error) {
	switch v.Op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, fail(code, v.Span(), GenericError, "division by zero")
		}
		if l%r == 0 {
			return l / r, nil
		}
		return Float(l) / Float(r), nil
	case ast.OpMod:
		if r == 0 {
			return nil, fail(code, v.Span(), GenericError, "division by zero")
		}
		return l % r, nil
	case ast.OpShl:
		return l << r, nil
	case ast.OpShr:
		return l >> r, nil
	case ast.OpBitAnd:
		return l & r, nil
	case ast.OpBitOr:
		return l | r, nil
	case ast.OpBitXor:
		return l ^ r, nil
	}
	return nil, fail(code, v.Span(), TypeError, "unsupported int operator %s", v.Op)
}

func floatBinary(code *Code, v *ast.BinaryExpr, l, r Float) (Value, error) {
	switch v.Op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, fail(code, v.Span(), GenericError, "division by zero")
		}
		return l / r, nil
	}
	return nil, fail(code, v.Span(), TypeError, "unsupported float operator %s", v.Op)
}

func asFloat(v Value) (Float, bool) {
	switch n := v.(type) {
	case Int:
		return Float(n), true
	case Float:
		return n, true
	}
	return 0, false
}

func compare(code *Code, sp source.Span, op ast.CmpOp, l, r Value) (bool, error) {
	switch op {
	case ast.OpEq:
		return Equal(l, r), nil
	case ast.OpNe:
		return !Equal(l, r), nil
	case ast.OpIn:
		switch c := r.(type) {
		case *List:
			for _, el := range c.Elems {
				if Equal(l, el) {
					return true, nil
				}
			}
			return false, nil
		case *Map:
			k, ok := l.(Str)
			if !ok {
				return false, fail(code, sp, TypeError, "map membership needs a str key, not %s", l.Kind())
			}
			_, found := c.Get(string(k))
			return found, nil
		case Str:
			sub, ok := l.(Str)
			if !ok {
				return false, fail(code, sp, TypeError, "str membership needs a str, not %s", l.Kind())
			}
			return contains(string(c), string(sub)), nil
		default:
			return false, fail(code, sp, TypeError, "%s is not a container", r.Kind())
		}
	}
	if lf, lok := asFloat(l); lok {
		if rf, rok := asFloat(r); rok {
			return orderCmp(op, float64(lf), float64(rf)), nil
		}
	}
	if ls, ok := l.(Str); ok {
		if rs, ok := r.(Str); ok {
			return orderCmp(op, string(ls), string(rs)), nil
		}
	}
	return false, fail(code, sp, TypeError, "%s and %s are not orderable", l.Kind(), r.Kind())
}

func orderCmp[T float64 | string](op ast.CmpOp, l, r T) bool {
	switch op {
	case ast.OpLt:
		return l < r
	case ast.OpLe:
		return l <= r
	case ast.OpGt:
		return l > r
	case ast.OpGe:
		return l >= r
	}
	return false
}

func contains(s, sub string) bool {
	if sub == "" {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func attr(code *Code, v *ast.AttrExpr, obj Value) (Value, error) {
	switch o := obj.(type) {
	case *Module:
		if val, ok := o.Attr(v.Name); ok {
			return val, nil
		}
		return nil, fail(code, v.Span(), NameError, "module %q has no attribute %q", o.Name, v.Name)
	case *Map:
		if val, ok := o.Get(v.Name); ok {
			return val, nil
		}
		if m := mapMethod(o, v.Name); m != nil {
			return m, nil
		}
		return nil, fail(code, v.Span(), KeyError, "no key %q", v.Name)
	case *List:
		if m := listMethod(o, v.Name); m != nil {
			return m, nil
		}
	case *ErrorVal:
		switch v.Name {
		case "kind":
			return Str(o.ErrKind), nil
		case "message":
			return Str(o.Msg), nil
		}
	}
	return nil, fail(code, v.Span(), TypeError, "%s has no attribute %q", obj.Kind(), v.Name)
}

func index(code *Code, v *ast.IndexExpr, obj, idx Value) (Value, error) {
	switch o := obj.(type) {
	case *List:
		i, err := listIndex(code, v.Span(), o, idx)
		if err != nil {
			return nil, err
		}
		return o.Elems[i], nil
	case Str:
		n, ok := idx.(Int)
		if !ok {
			return nil, fail(code, v.Span(), TypeError, "str index must be int, not %s", idx.Kind())
		}
		i := int(n)
		if i < 0 {
			i += len(o)
		}
		if i < 0 || i >= len(o) {
			return nil, fail(code, v.Span(), IndexError, "str index %d out of range", int(n))
		}
		return o[i : i+1], nil
	case *Map:
		k, ok := idx.(Str)
		if !ok {
			return nil, fail(code, v.Span(), TypeError, "map key must be str, not %s", idx.Kind())
		}
		val, found := o.Get(string(k))
		if !found {
			return nil, fail(code, v.Span(), KeyError, "no key %q", string(k))
		}
		return val, nil
	default:
		return nil, fail(code, v.Span(), TypeError, "%s is not indexable", obj.Kind())
	}
}

func listIndex(code *Code, sp source.Span, l *List, idx Value) (int, error) {
	n, ok := idx.(Int)
	if !ok {
		return 0, fail(code, sp, TypeError, "list index must be int, not %s", idx.Kind())
	}
	i := int(n)
	if i < 0 {
		i += len(l.Elems)
	}
	if i < 0 || i >= len(l.Elems) {
		return 0, fail(code, sp, IndexError, "list index %d out of range", int(n))
	}
	return i, nil
}

func iterate(code *Code, sp source.Span, v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		out := make([]Value, len(x.Elems))
		copy(out, x.Elems)
		return out, nil
	case *Map:
		out := make([]Value, 0, x.Len())
		for _, k := range x.Keys() {
			out = append(out, Str(k))
		}
		return out, nil
	case Str:
		out := make([]Value, 0, len(x))
		for _, r := range string(x) {
			out = append(out, Str(string(r)))
		}
		return out, nil
	default:
		return nil, fail(code, sp, TypeError, "%s is not iterable", v.Kind())
	}
}

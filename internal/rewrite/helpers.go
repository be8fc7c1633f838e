package rewrite

import (
	"fmt"

	"attest/internal/interp"
	"attest/internal/saferepr"
)

// Helpers is the handle to one interpreter's support module. ReprCalls
// counts value renderings, which only ever happen inside a failure block;
// a passing run keeps it at zero.
type Helpers struct {
	ReprCalls int
}

// Install registers the support module on an interpreter and returns its
// handle. Rewritten code reaches it through the inserted import.
func Install(it *interp.Interp) *Helpers {
	h := &Helpers{}
	it.RegisterNative("helpers", h.module())
	return h
}

func (h *Helpers) module() *interp.Module {
	env := interp.NewEnv(nil)

	def := func(name string, fn func(args []interp.Value) (interp.Value, error)) {
		env.Define(name, &interp.Native{
			Name: name,
			Fn: func(it *interp.Interp, caller *interp.Env, args []interp.Value, kwargs map[string]interp.Value) (interp.Value, error) {
				return fn(args)
			},
		})
	}

	def("saferepr", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 1 {
			return nil, argCount("saferepr", 1, len(args))
		}
		h.ReprCalls++
		return interp.Str(saferepr.Repr(args[0])), nil
	})

	def("format", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 2 {
			return nil, argCount("format", 2, len(args))
		}
		tmpl, ok := args[0].(interp.Str)
		if !ok {
			return nil, badArg("format", "template", "str", args[0])
		}
		dict, ok := args[1].(*interp.Map)
		if !ok {
			return nil, badArg("format", "params", "map", args[1])
		}
		params := make(map[string]string, dict.Len())
		for _, k := range dict.Keys() {
			v, _ := dict.Get(k)
			params[k] = interp.Display(v)
		}
		return interp.Str(saferepr.Format(string(tmpl), params)), nil
	})

	def("format_boolop", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 2 {
			return nil, argCount("format_boolop", 2, len(args))
		}
		list, ok := args[0].(*interp.List)
		if !ok {
			return nil, badArg("format_boolop", "explanations", "list", args[0])
		}
		expls := make([]string, len(list.Elems))
		for i, e := range list.Elems {
			expls[i] = interp.Display(e)
		}
		return interp.Str(saferepr.FormatBoolOp(expls, interp.Truthy(args[1]))), nil
	})

	def("format_explanation", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 1 {
			return nil, argCount("format_explanation", 1, len(args))
		}
		raw, ok := args[0].(interp.Str)
		if !ok {
			return nil, badArg("format_explanation", "explanation", "str", args[0])
		}
		return interp.Str(saferepr.FormatExplanation(string(raw))), nil
	})

	def("call_reprcompare", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 4 {
			return nil, argCount("call_reprcompare", 4, len(args))
		}
		ops, err := strList("call_reprcompare", args[0])
		if err != nil {
			return nil, err
		}
		resList, ok := args[1].(*interp.List)
		if !ok {
			return nil, badArg("call_reprcompare", "results", "list", args[1])
		}
		results := make([]bool, len(resList.Elems))
		for i, e := range resList.Elems {
			results[i] = interp.Truthy(e)
		}
		expls, err := strList("call_reprcompare", args[2])
		if err != nil {
			return nil, err
		}
		objList, ok := args[3].(*interp.List)
		if !ok {
			return nil, badArg("call_reprcompare", "operands", "list", args[3])
		}
		return interp.Str(saferepr.CallReprCompare(ops, results, expls, objList.Elems)), nil
	})

	def("assertion_error", func(args []interp.Value) (interp.Value, error) {
		if len(args) != 1 {
			return nil, argCount("assertion_error", 1, len(args))
		}
		return &interp.ErrorVal{ErrKind: interp.AssertionError, Msg: interp.Display(args[0])}, nil
	})

	return &interp.Module{Name: HelperModulePath, Env: env}
}

func argCount(name string, want, got int) error {
	return &interp.Raise{Kind: interp.TypeError,
		Msg: fmt.Sprintf("%s() takes %d arguments, got %d", name, want, got)}
}

func badArg(fn, arg, want string, got interp.Value) error {
	return &interp.Raise{Kind: interp.TypeError,
		Msg: fn + "() " + arg + " must be " + want + ", not " + got.Kind().String()}
}

func strList(fn string, v interp.Value) ([]string, error) {
	list, ok := v.(*interp.List)
	if !ok {
		return nil, badArg(fn, "argument", "list", v)
	}
	out := make([]string, len(list.Elems))
	for i, e := range list.Elems {
		out[i] = interp.Display(e)
	}
	return out, nil
}

package ast

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"attest/internal/source"
)

// Wire format for cached compiled artifacts. Every node flattens to one
// tagged record; decoding validates tags and child counts so a corrupt or
// stale payload surfaces as an error, which cache lookup downgrades to a
// miss. Bump WireVersion whenever this layout changes.
const WireVersion uint8 = 1

const (
	wInvalid uint8 = iota
	wExprStmt
	wLetStmt
	wAssignStmt
	wAssertStmt
	wIfStmt
	wWhileStmt
	wForStmt
	wFnStmt
	wReturnStmt
	wBreakStmt
	wContinueStmt
	wImportStmt
	wRaiseStmt
	wPragmaStmt
	wDelStmt

	wNameExpr uint8 = iota + 16
	wNothingLit
	wBoolLit
	wIntLit
	wFloatLit
	wStrLit
	wListExpr
	wMapExpr
	wUnaryExpr
	wBinaryExpr
	wBoolExpr
	wCompareExpr
	wCallExpr
	wAttrExpr
	wIndexExpr
	wCondExpr
)

type wireNode struct {
	Kind  uint8      `msgpack:"k"`
	Start uint32     `msgpack:"s,omitempty"`
	End   uint32     `msgpack:"e,omitempty"`
	Str   string     `msgpack:"t,omitempty"`
	Str2  string     `msgpack:"u,omitempty"`
	Strs  []string   `msgpack:"n,omitempty"`
	Int   int64      `msgpack:"i,omitempty"`
	Float float64    `msgpack:"f,omitempty"`
	Bool  bool       `msgpack:"b,omitempty"`
	Op    uint8      `msgpack:"o,omitempty"`
	Ops   []uint8    `msgpack:"p,omitempty"`
	Kids  []wireNode `msgpack:"a,omitempty"`
	Kids2 []wireNode `msgpack:"c,omitempty"`
	Kids3 []wireNode `msgpack:"d,omitempty"`
}

type wireFile struct {
	Version uint8      `msgpack:"v"`
	Path    string     `msgpack:"path"`
	Lines   []uint32   `msgpack:"lines,omitempty"`
	Body    []wireNode `msgpack:"body"`
}

// EncodeFile serializes a file to w in the wire format.
func EncodeFile(w io.Writer, f *File) error {
	wf := wireFile{
		Version: WireVersion,
		Path:    f.Path,
		Lines:   f.LineIdx,
		Body:    stmtsToWire(f.Body),
	}
	return msgpack.NewEncoder(w).Encode(&wf)
}

// DecodeFile reads a file from r, validating the wire format.
func DecodeFile(r io.Reader) (*File, error) {
	var wf wireFile
	if err := msgpack.NewDecoder(r).Decode(&wf); err != nil {
		return nil, err
	}
	if wf.Version != WireVersion {
		return nil, fmt.Errorf("wire version %d, want %d", wf.Version, WireVersion)
	}
	body, err := stmtsFromWire(wf.Body)
	if err != nil {
		return nil, err
	}
	return &File{Path: wf.Path, LineIdx: wf.Lines, Body: body}, nil
}

func stmtsToWire(ss []Stmt) []wireNode {
	out := make([]wireNode, len(ss))
	for i, s := range ss {
		out[i] = stmtToWire(s)
	}
	return out
}

func exprsToWire(es []Expr) []wireNode {
	out := make([]wireNode, len(es))
	for i, e := range es {
		out[i] = exprToWire(e)
	}
	return out
}

func stmtToWire(s Stmt) wireNode {
	w := wireNode{Start: s.Span().Start, End: s.Span().End}
	switch v := s.(type) {
	case *ExprStmt:
		w.Kind = wExprStmt
		w.Kids = []wireNode{exprToWire(v.X)}
	case *LetStmt:
		w.Kind = wLetStmt
		w.Str = v.Name
		w.Kids = []wireNode{exprToWire(v.Value)}
	case *AssignStmt:
		w.Kind = wAssignStmt
		w.Kids = []wireNode{exprToWire(v.Target), exprToWire(v.Value)}
	case *AssertStmt:
		w.Kind = wAssertStmt
		w.Kids = []wireNode{exprToWire(v.Test)}
		if v.Msg != nil {
			w.Kids = append(w.Kids, exprToWire(v.Msg))
		}
	case *IfStmt:
		w.Kind = wIfStmt
		w.Kids = []wireNode{exprToWire(v.Cond)}
		w.Kids2 = stmtsToWire(v.Then)
		w.Kids3 = stmtsToWire(v.Else)
	case *WhileStmt:
		w.Kind = wWhileStmt
		w.Kids = []wireNode{exprToWire(v.Cond)}
		w.Kids2 = stmtsToWire(v.Body)
	case *ForStmt:
		w.Kind = wForStmt
		w.Str = v.Var
		w.Kids = []wireNode{exprToWire(v.Iter)}
		w.Kids2 = stmtsToWire(v.Body)
	case *FnStmt:
		w.Kind = wFnStmt
		w.Str = v.Name
		w.Strs = v.Params
		w.Kids2 = stmtsToWire(v.Body)
	case *ReturnStmt:
		w.Kind = wReturnStmt
		if v.Value != nil {
			w.Kids = []wireNode{exprToWire(v.Value)}
		}
	case *BreakStmt:
		w.Kind = wBreakStmt
	case *ContinueStmt:
		w.Kind = wContinueStmt
	case *ImportStmt:
		w.Kind = wImportStmt
		w.Str = v.Path
		w.Str2 = v.Alias
	case *RaiseStmt:
		w.Kind = wRaiseStmt
		w.Kids = []wireNode{exprToWire(v.X)}
	case *PragmaStmt:
		w.Kind = wPragmaStmt
		w.Str = v.Name
	case *DelStmt:
		w.Kind = wDelStmt
		w.Strs = v.Names
	}
	return w
}

func exprToWire(e Expr) wireNode {
	w := wireNode{Start: e.Span().Start, End: e.Span().End}
	switch v := e.(type) {
	case *NameExpr:
		w.Kind = wNameExpr
		w.Str = v.Name
	case *NothingLit:
		w.Kind = wNothingLit
	case *BoolLit:
		w.Kind = wBoolLit
		w.Bool = v.V
	case *IntLit:
		w.Kind = wIntLit
		w.Int = v.V
	case *FloatLit:
		w.Kind = wFloatLit
		w.Float = v.V
	case *StrLit:
		w.Kind = wStrLit
		w.Str = v.V
	case *ListExpr:
		w.Kind = wListExpr
		w.Kids = exprsToWire(v.Elems)
	case *MapExpr:
		w.Kind = wMapExpr
		w.Kids = exprsToWire(v.Keys)
		w.Kids2 = exprsToWire(v.Vals)
	case *UnaryExpr:
		w.Kind = wUnaryExpr
		w.Op = uint8(v.Op)
		w.Kids = []wireNode{exprToWire(v.X)}
	case *BinaryExpr:
		w.Kind = wBinaryExpr
		w.Op = uint8(v.Op)
		w.Kids = []wireNode{exprToWire(v.L), exprToWire(v.R)}
	case *BoolExpr:
		w.Kind = wBoolExpr
		w.Op = uint8(v.Op)
		w.Kids = exprsToWire(v.Vals)
	case *CompareExpr:
		w.Kind = wCompareExpr
		w.Kids = []wireNode{exprToWire(v.Left)}
		w.Ops = make([]uint8, len(v.Ops))
		for i, op := range v.Ops {
			w.Ops[i] = uint8(op)
		}
		w.Kids2 = exprsToWire(v.Rights)
	case *CallExpr:
		w.Kind = wCallExpr
		w.Kids = []wireNode{exprToWire(v.Fn)}
		if v.Spread != nil {
			w.Bool = true
			w.Kids = append(w.Kids, exprToWire(v.Spread))
		}
		w.Kids2 = exprsToWire(v.Args)
		w.Strs = v.KwNames
		w.Kids3 = exprsToWire(v.KwVals)
	case *AttrExpr:
		w.Kind = wAttrExpr
		w.Str = v.Name
		w.Kids = []wireNode{exprToWire(v.X)}
	case *IndexExpr:
		w.Kind = wIndexExpr
		w.Kids = []wireNode{exprToWire(v.X), exprToWire(v.Index)}
	case *CondExpr:
		w.Kind = wCondExpr
		w.Kids = []wireNode{exprToWire(v.Cond), exprToWire(v.Then), exprToWire(v.Else)}
	}
	return w
}

func stmtsFromWire(ws []wireNode) ([]Stmt, error) {
	out := make([]Stmt, len(ws))
	for i := range ws {
		s, err := stmtFromWire(&ws[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func exprsFromWire(ws []wireNode) ([]Expr, error) {
	out := make([]Expr, len(ws))
	for i := range ws {
		e, err := exprFromWire(&ws[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (w *wireNode) wantKids(n int) error {
	if len(w.Kids) != n {
		return fmt.Errorf("wire node %d: %d children, want %d", w.Kind, len(w.Kids), n)
	}
	return nil
}

func (w *wireNode) span() source.Span {
	return source.Span{Start: w.Start, End: w.End}
}

func stmtFromWire(w *wireNode) (Stmt, error) {
	sp := w.span()
	switch w.Kind {
	case wExprStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		x, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		s := &ExprStmt{X: x}
		s.SetSpan(sp)
		return s, nil
	case wLetStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		v, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		s := &LetStmt{Name: w.Str, Value: v}
		s.SetSpan(sp)
		return s, nil
	case wAssignStmt:
		if err := w.wantKids(2); err != nil {
			return nil, err
		}
		target, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := exprFromWire(&w.Kids[1])
		if err != nil {
			return nil, err
		}
		s := &AssignStmt{Target: target, Value: value}
		s.SetSpan(sp)
		return s, nil
	case wAssertStmt:
		if len(w.Kids) != 1 && len(w.Kids) != 2 {
			return nil, fmt.Errorf("assert wire node: %d children", len(w.Kids))
		}
		test, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		s := &AssertStmt{Test: test}
		if len(w.Kids) == 2 {
			msg, err := exprFromWire(&w.Kids[1])
			if err != nil {
				return nil, err
			}
			s.Msg = msg
		}
		s.SetSpan(sp)
		return s, nil
	case wIfStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		cond, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		then, err := stmtsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		els, err := stmtsFromWire(w.Kids3)
		if err != nil {
			return nil, err
		}
		s := &IfStmt{Cond: cond, Then: then, Else: els}
		s.SetSpan(sp)
		return s, nil
	case wWhileStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		cond, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		body, err := stmtsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		s := &WhileStmt{Cond: cond, Body: body}
		s.SetSpan(sp)
		return s, nil
	case wForStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		iter, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		body, err := stmtsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		s := &ForStmt{Var: w.Str, Iter: iter, Body: body}
		s.SetSpan(sp)
		return s, nil
	case wFnStmt:
		body, err := stmtsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		s := &FnStmt{Name: w.Str, Params: w.Strs, Body: body}
		s.SetSpan(sp)
		return s, nil
	case wReturnStmt:
		s := &ReturnStmt{}
		if len(w.Kids) == 1 {
			v, err := exprFromWire(&w.Kids[0])
			if err != nil {
				return nil, err
			}
			s.Value = v
		}
		s.SetSpan(sp)
		return s, nil
	case wBreakStmt:
		s := &BreakStmt{}
		s.SetSpan(sp)
		return s, nil
	case wContinueStmt:
		s := &ContinueStmt{}
		s.SetSpan(sp)
		return s, nil
	case wImportStmt:
		s := &ImportStmt{Path: w.Str, Alias: w.Str2}
		s.SetSpan(sp)
		return s, nil
	case wRaiseStmt:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		x, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		s := &RaiseStmt{X: x}
		s.SetSpan(sp)
		return s, nil
	case wPragmaStmt:
		s := &PragmaStmt{Name: w.Str}
		s.SetSpan(sp)
		return s, nil
	case wDelStmt:
		s := &DelStmt{Names: w.Strs}
		s.SetSpan(sp)
		return s, nil
	default:
		return nil, fmt.Errorf("wire kind %d is not a statement", w.Kind)
	}
}

func exprFromWire(w *wireNode) (Expr, error) {
	sp := w.span()
	switch w.Kind {
	case wNameExpr:
		e := &NameExpr{Name: w.Str}
		e.SetSpan(sp)
		return e, nil
	case wNothingLit:
		e := &NothingLit{}
		e.SetSpan(sp)
		return e, nil
	case wBoolLit:
		e := &BoolLit{V: w.Bool}
		e.SetSpan(sp)
		return e, nil
	case wIntLit:
		e := &IntLit{V: w.Int}
		e.SetSpan(sp)
		return e, nil
	case wFloatLit:
		e := &FloatLit{V: w.Float}
		e.SetSpan(sp)
		return e, nil
	case wStrLit:
		e := &StrLit{V: w.Str}
		e.SetSpan(sp)
		return e, nil
	case wListExpr:
		elems, err := exprsFromWire(w.Kids)
		if err != nil {
			return nil, err
		}
		e := &ListExpr{Elems: elems}
		e.SetSpan(sp)
		return e, nil
	case wMapExpr:
		if len(w.Kids) != len(w.Kids2) {
			return nil, fmt.Errorf("map wire node: %d keys, %d values", len(w.Kids), len(w.Kids2))
		}
		keys, err := exprsFromWire(w.Kids)
		if err != nil {
			return nil, err
		}
		vals, err := exprsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		e := &MapExpr{Keys: keys, Vals: vals}
		e.SetSpan(sp)
		return e, nil
	case wUnaryExpr:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		if w.Op > uint8(OpInvert) {
			return nil, fmt.Errorf("unary wire node: bad op %d", w.Op)
		}
		x, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		e := &UnaryExpr{Op: UnaryOp(w.Op), X: x}
		e.SetSpan(sp)
		return e, nil
	case wBinaryExpr:
		if err := w.wantKids(2); err != nil {
			return nil, err
		}
		if w.Op > uint8(OpBitXor) {
			return nil, fmt.Errorf("binary wire node: bad op %d", w.Op)
		}
		l, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		r, err := exprFromWire(&w.Kids[1])
		if err != nil {
			return nil, err
		}
		e := &BinaryExpr{Op: BinOp(w.Op), L: l, R: r}
		e.SetSpan(sp)
		return e, nil
	case wBoolExpr:
		if len(w.Kids) < 2 {
			return nil, fmt.Errorf("boolop wire node: %d operands", len(w.Kids))
		}
		vals, err := exprsFromWire(w.Kids)
		if err != nil {
			return nil, err
		}
		e := &BoolExpr{Op: BoolOp(w.Op), Vals: vals}
		e.SetSpan(sp)
		return e, nil
	case wCompareExpr:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		if len(w.Ops) == 0 || len(w.Ops) != len(w.Kids2) {
			return nil, fmt.Errorf("compare wire node: %d ops, %d operands", len(w.Ops), len(w.Kids2))
		}
		left, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		rights, err := exprsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		ops := make([]CmpOp, len(w.Ops))
		for i, op := range w.Ops {
			if op > uint8(OpIn) {
				return nil, fmt.Errorf("compare wire node: bad op %d", op)
			}
			ops[i] = CmpOp(op)
		}
		e := &CompareExpr{Left: left, Ops: ops, Rights: rights}
		e.SetSpan(sp)
		return e, nil
	case wCallExpr:
		wantFn := 1
		if w.Bool {
			wantFn = 2
		}
		if err := w.wantKids(wantFn); err != nil {
			return nil, err
		}
		if len(w.Strs) != len(w.Kids3) {
			return nil, fmt.Errorf("call wire node: %d kw names, %d kw values", len(w.Strs), len(w.Kids3))
		}
		fn, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		args, err := exprsFromWire(w.Kids2)
		if err != nil {
			return nil, err
		}
		kwVals, err := exprsFromWire(w.Kids3)
		if err != nil {
			return nil, err
		}
		e := &CallExpr{Fn: fn, Args: args, KwNames: w.Strs, KwVals: kwVals}
		if w.Bool {
			spread, err := exprFromWire(&w.Kids[1])
			if err != nil {
				return nil, err
			}
			e.Spread = spread
		}
		e.SetSpan(sp)
		return e, nil
	case wAttrExpr:
		if err := w.wantKids(1); err != nil {
			return nil, err
		}
		x, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		e := &AttrExpr{X: x, Name: w.Str}
		e.SetSpan(sp)
		return e, nil
	case wIndexExpr:
		if err := w.wantKids(2); err != nil {
			return nil, err
		}
		x, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		idx, err := exprFromWire(&w.Kids[1])
		if err != nil {
			return nil, err
		}
		e := &IndexExpr{X: x, Index: idx}
		e.SetSpan(sp)
		return e, nil
	case wCondExpr:
		if err := w.wantKids(3); err != nil {
			return nil, err
		}
		cond, err := exprFromWire(&w.Kids[0])
		if err != nil {
			return nil, err
		}
		then, err := exprFromWire(&w.Kids[1])
		if err != nil {
			return nil, err
		}
		els, err := exprFromWire(&w.Kids[2])
		if err != nil {
			return nil, err
		}
		e := &CondExpr{Cond: cond, Then: then, Else: els}
		e.SetSpan(sp)
		return e, nil
	default:
		return nil, fmt.Errorf("wire kind %d is not an expression", w.Kind)
	}
}

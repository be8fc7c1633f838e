package ast

import (
	"attest/internal/source"
)

// Children appends every direct child node of n to out and returns it.
func Children(n Node, out []Node) []Node {
	add := func(c Node) {
		out = append(out, c)
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			out = append(out, e)
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			out = append(out, s)
		}
	}

	switch v := n.(type) {
	case *ExprStmt:
		add(v.X)
	case *LetStmt:
		add(v.Value)
	case *AssignStmt:
		add(v.Target)
		add(v.Value)
	case *AssertStmt:
		add(v.Test)
		if v.Msg != nil {
			add(v.Msg)
		}
	case *IfStmt:
		add(v.Cond)
		addStmts(v.Then)
		addStmts(v.Else)
	case *WhileStmt:
		add(v.Cond)
		addStmts(v.Body)
	case *ForStmt:
		add(v.Iter)
		addStmts(v.Body)
	case *FnStmt:
		addStmts(v.Body)
	case *ReturnStmt:
		if v.Value != nil {
			add(v.Value)
		}
	case *RaiseStmt:
		add(v.X)
	case *ListExpr:
		addExprs(v.Elems)
	case *MapExpr:
		addExprs(v.Keys)
		addExprs(v.Vals)
	case *UnaryExpr:
		add(v.X)
	case *BinaryExpr:
		add(v.L)
		add(v.R)
	case *BoolExpr:
		addExprs(v.Vals)
	case *CompareExpr:
		add(v.Left)
		addExprs(v.Rights)
	case *CallExpr:
		add(v.Fn)
		addExprs(v.Args)
		addExprs(v.KwVals)
		if v.Spread != nil {
			add(v.Spread)
		}
	case *AttrExpr:
		add(v.X)
	case *IndexExpr:
		add(v.X)
		add(v.Index)
	case *CondExpr:
		add(v.Cond)
		add(v.Then)
		add(v.Else)
	}
	return out
}

// Stamp sets the span of n and every node below it. The rewriter uses this
// so synthesized statements report the original assertion's position.
func Stamp(n Node, sp source.Span) {
	n.SetSpan(sp)
	for _, c := range Children(n, nil) {
		Stamp(c, sp)
	}
}

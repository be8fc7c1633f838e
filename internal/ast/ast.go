// Package ast defines the syntax tree for attest scripts.
//
// Nodes are plain pointer structs tagged by type. Statement bodies are the
// only lists ever rewritten in place; expression subtrees are always wrapped
// in a statement before being spliced into statement position.
package ast

import (
	"attest/internal/source"
)

// Node is implemented by every statement and expression.
type Node interface {
	Span() source.Span
	SetSpan(source.Span)
}

type base struct {
	Sp source.Span
}

func (b *base) Span() source.Span      { return b.Sp }
func (b *base) SetSpan(sp source.Span) { b.Sp = sp }

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// File is one parsed source unit. LineIdx is the unit's newline offset
// table, kept with the tree so positions can be rendered after the source
// text is gone (for example when executing a cached artifact).
type File struct {
	Path    string
	LineIdx []uint32
	Body    []Stmt
}

// Pos maps the start of a span to a line:column within the file.
func (f *File) Pos(sp source.Span) source.LineCol {
	return source.ToLineCol(f.LineIdx, sp.Start)
}

// Statements.

// ExprStmt is an expression evaluated for effect. A leading string ExprStmt
// is the module doc string.
type ExprStmt struct {
	base
	X Expr
}

// LetStmt introduces a new binding in the current scope.
type LetStmt struct {
	base
	Name  string
	Value Expr
}

// AssignStmt stores into an existing name, attribute, or index target.
type AssignStmt struct {
	base
	Target Expr // *NameExpr, *AttrExpr, or *IndexExpr
	Value  Expr
}

// AssertStmt checks a boolean test. Msg is nil when no explicit message was
// written; only that form is ever rewritten.
type AssertStmt struct {
	base
	Test Expr
	Msg  Expr
}

type IfStmt struct {
	base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type WhileStmt struct {
	base
	Cond Expr
	Body []Stmt
}

type ForStmt struct {
	base
	Var  string
	Iter Expr
	Body []Stmt
}

type FnStmt struct {
	base
	Name   string
	Params []string
	Body   []Stmt
}

type ReturnStmt struct {
	base
	Value Expr // nil for bare return
}

type BreakStmt struct {
	base
}

type ContinueStmt struct {
	base
}

// ImportStmt binds the module named by Path to Alias.
type ImportStmt struct {
	base
	Path  string
	Alias string
}

// RaiseStmt raises the evaluated value as a failure.
type RaiseStmt struct {
	base
	X Expr
}

// PragmaStmt is a future-behavior declaration; only allowed in the module
// preamble.
type PragmaStmt struct {
	base
	Name string
}

// DelStmt removes bindings from the current scope. The rewriter emits these
// to release temporary slots.
type DelStmt struct {
	base
	Names []string
}

func (*ExprStmt) stmtNode()     {}
func (*LetStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()   {}
func (*AssertStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*FnStmt) stmtNode()       {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ImportStmt) stmtNode()   {}
func (*RaiseStmt) stmtNode()    {}
func (*PragmaStmt) stmtNode()   {}
func (*DelStmt) stmtNode()      {}

// Expressions.

type NameExpr struct {
	base
	Name string
}

type NothingLit struct {
	base
}

type BoolLit struct {
	base
	V bool
}

type IntLit struct {
	base
	V int64
}

type FloatLit struct {
	base
	V float64
}

type StrLit struct {
	base
	V string
}

type ListExpr struct {
	base
	Elems []Expr
}

// MapExpr keeps keys and values in source order.
type MapExpr struct {
	base
	Keys []Expr
	Vals []Expr
}

type UnaryExpr struct {
	base
	Op UnaryOp
	X  Expr
}

type BinaryExpr struct {
	base
	Op BinOp
	L  Expr
	R  Expr
}

// BoolExpr is a short-circuit chain: all Vals joined by one operator.
type BoolExpr struct {
	base
	Op   BoolOp
	Vals []Expr
}

// CompareExpr is a possibly chained comparison a < b <= c: len(Ops) ==
// len(Rights), each operand evaluated once left to right.
type CompareExpr struct {
	base
	Left   Expr
	Ops    []CmpOp
	Rights []Expr
}

// CallExpr supports positional, keyword, and spread arguments.
type CallExpr struct {
	base
	Fn      Expr
	Args    []Expr
	KwNames []string
	KwVals  []Expr
	Spread  Expr // nil unless a ...expr argument was written
}

type AttrExpr struct {
	base
	X    Expr
	Name string
}

type IndexExpr struct {
	base
	X     Expr
	Index Expr
}

// CondExpr is the ternary cond ? then : else.
type CondExpr struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

func (*NameExpr) exprNode()    {}
func (*NothingLit) exprNode()  {}
func (*BoolLit) exprNode()     {}
func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StrLit) exprNode()      {}
func (*ListExpr) exprNode()    {}
func (*MapExpr) exprNode()     {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*BoolExpr) exprNode()    {}
func (*CompareExpr) exprNode() {}
func (*CallExpr) exprNode()    {}
func (*AttrExpr) exprNode()    {}
func (*IndexExpr) exprNode()   {}
func (*CondExpr) exprNode()    {}

// Package rewrite turns plain assert statements into instrumented
// statement sequences that reconstruct a failure explanation from the
// values observed during the one real evaluation of the test.
package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"attest/internal/ast"
	"attest/internal/source"
)

// FormatRevision identifies the rewrite output format. It participates in
// the cache artifact tag: bumping it orphans artifacts produced by older
// rewriters instead of letting them be replayed.
const FormatRevision uint8 = 1

// OptOutMarker disables rewriting for a module when it appears in the
// module doc string.
const OptOutMarker = "ATTEST_DONT_REWRITE"

// Aliases bound by the inserted imports. The leading @ cannot be written
// in source, so rewritten code can never collide with user bindings.
const (
	helperAlias  = "@ar"
	builtinAlias = "@bi"
)

// Module paths the inserted imports resolve to.
const (
	HelperModulePath  = "attest:helpers"
	BuiltinModulePath = "attest:builtins"
)

// Rewrite transforms every bare assert in f in place and inserts the
// support imports. It reports false, leaving f untouched, when the module
// opts out via OptOutMarker.
func Rewrite(f *ast.File) bool {
	if len(f.Body) == 0 {
		return true
	}
	// The support imports go after the doc string and any pragmas.
	expectDoc := true
	pos := 0
scan:
	for _, item := range f.Body {
		switch v := item.(type) {
		case *ast.ExprStmt:
			s, ok := v.X.(*ast.StrLit)
			if !ok || !expectDoc {
				break scan
			}
			if strings.Contains(s.V, OptOutMarker) {
				return false
			}
			expectDoc = false
		case *ast.PragmaStmt:
		default:
			break scan
		}
		pos++
	}
	var sp source.Span
	if pos < len(f.Body) {
		sp = f.Body[pos].Span()
	} else {
		sp = f.Body[len(f.Body)-1].Span()
	}
	imports := []ast.Stmt{
		&ast.ImportStmt{Path: HelperModulePath, Alias: helperAlias},
		&ast.ImportStmt{Path: BuiltinModulePath, Alias: builtinAlias},
	}
	for _, imp := range imports {
		ast.Stamp(imp, sp)
	}
	rest := rewriteBody(f.Body[pos:])
	body := make([]ast.Stmt, 0, pos+len(imports)+len(rest))
	body = append(body, f.Body[:pos]...)
	body = append(body, imports...)
	body = append(body, rest...)
	f.Body = body
	return true
}

// rewriteBody replaces asserts in a statement list and recurses into
// nested statement bodies. Expressions cannot contain statements, so the
// walk never descends into them.
func rewriteBody(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		if a, ok := s.(*ast.AssertStmt); ok && a.Msg == nil {
			out = append(out, rewriteAssert(a)...)
			continue
		}
		switch v := s.(type) {
		case *ast.IfStmt:
			v.Then = rewriteBody(v.Then)
			v.Else = rewriteBody(v.Else)
		case *ast.WhileStmt:
			v.Body = rewriteBody(v.Body)
		case *ast.ForStmt:
			v.Body = rewriteBody(v.Body)
		case *ast.FnStmt:
			v.Body = rewriteBody(v.Body)
		}
		out = append(out, s)
	}
	return out
}

// formatCtx collects the explanation parameters of one template, in
// emission order.
type formatCtx struct {
	names []string
	exprs []ast.Expr
}

// chainGroup holds the temporaries created under one condition chain, so
// cleanup can guard their deletion with exactly the conditions that made
// them exist.
type chainGroup struct {
	key   string
	conds []ast.Expr
	names []string
}

type rewriter struct {
	counter   int
	cur       *[]ast.Stmt
	fail      *[]ast.Stmt
	onFailure []ast.Stmt
	condChain []ast.Expr
	groups    []*chainGroup
	stack     []*formatCtx
}

func (r *rewriter) next() int {
	n := r.counter
	r.counter++
	return n
}

// variable allocates a fresh temporary and records it under the current
// condition chain.
func (r *rewriter) variable() string {
	name := fmt.Sprintf("@t%d", r.next())
	key := chainKey(r.condChain)
	for _, g := range r.groups {
		if g.key == key {
			g.names = append(g.names, name)
			return name
		}
	}
	conds := make([]ast.Expr, len(r.condChain))
	copy(conds, r.condChain)
	r.groups = append(r.groups, &chainGroup{key: key, conds: conds, names: []string{name}})
	return name
}

func chainKey(conds []ast.Expr) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = ast.Text(c)
	}
	return strings.Join(parts, "\x00")
}

func (r *rewriter) emit(s ast.Stmt) {
	*r.cur = append(*r.cur, s)
}

// emitFail appends to the failure block at the current nesting level.
// Inside a short-circuit chain the level is an if replica of the chain's
// conditions, so formatting of an unreached operand never runs.
func (r *rewriter) emitFail(s ast.Stmt) {
	*r.fail = append(*r.fail, s)
}

// assign gives expr a temporary name and returns a load of it.
func (r *rewriter) assign(expr ast.Expr) *ast.NameExpr {
	name := r.variable()
	r.emit(&ast.AssignStmt{Target: &ast.NameExpr{Name: name}, Value: expr})
	return &ast.NameExpr{Name: name}
}

// helper builds a call to a support-module function.
func (r *rewriter) helper(name string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{
		Fn:   &ast.AttrExpr{X: &ast.NameExpr{Name: helperAlias}, Name: name},
		Args: args,
	}
}

func (r *rewriter) builtin(name string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{
		Fn:   &ast.AttrExpr{X: &ast.NameExpr{Name: builtinAlias}, Name: name},
		Args: args,
	}
}

// display renders an expression's runtime value lazily, on failure only.
// Name loads are guarded: a short-circuited branch leaves its temporaries
// unassigned, and the failure block must still be able to build every
// explanation parameter without tripping over them.
func (r *rewriter) display(expr ast.Expr) ast.Expr {
	if n, ok := expr.(*ast.NameExpr); ok {
		return &ast.CondExpr{
			Cond: r.builtin("bound", &ast.StrLit{V: n.Name}),
			Then: r.helper("saferepr", &ast.NameExpr{Name: n.Name}),
			Else: &ast.StrLit{V: n.Name},
		}
	}
	return r.helper("saferepr", expr)
}

// explanationParam registers expr in the current format context and
// returns its placeholder.
func (r *rewriter) explanationParam(expr ast.Expr) string {
	spec := fmt.Sprintf("p%d", r.next())
	ctx := r.stack[len(r.stack)-1]
	ctx.names = append(ctx.names, spec)
	ctx.exprs = append(ctx.exprs, expr)
	return "%(" + spec + ")s"
}

func (r *rewriter) enterCond(cond ast.Expr) {
	ifs := &ast.IfStmt{Cond: cond}
	r.emit(ifs)
	r.condChain = append(r.condChain, cond)
	r.cur = &ifs.Then
}

func (r *rewriter) leaveCond(n int) {
	r.condChain = r.condChain[:len(r.condChain)-n]
}

func (r *rewriter) pushFormatContext() {
	r.stack = append(r.stack, &formatCtx{})
}

// popFormatContext materializes the current template: a format slot
// assignment emitted into the failure block, where it runs only when the
// assertion actually failed and the guarded operand was reached.
func (r *rewriter) popFormatContext(template ast.Expr) ast.Expr {
	ctx := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	dict := &ast.MapExpr{}
	for i, name := range ctx.names {
		dict.Keys = append(dict.Keys, &ast.StrLit{V: name})
		dict.Vals = append(dict.Vals, ctx.exprs[i])
	}
	form := r.helper("format", template, dict)
	name := fmt.Sprintf("@fmt%d", r.next())
	r.emitFail(&ast.AssignStmt{Target: &ast.NameExpr{Name: name}, Value: form})
	return &ast.NameExpr{Name: name}
}

// rewriteAssert expands one bare assert into its instrumented form.
func rewriteAssert(a *ast.AssertStmt) []ast.Stmt {
	r := &rewriter{}
	out := []ast.Stmt{}
	r.cur = &out
	r.fail = &r.onFailure
	r.pushFormatContext()
	top, expl := r.visit(a.Test)

	msg := r.popFormatContext(&ast.StrLit{V: "assert " + expl})
	formatted := r.helper("format_explanation", msg)
	exc := r.helper("assertion_error", formatted)
	r.onFailure = append(r.onFailure, &ast.RaiseStmt{X: exc})
	out = append(out, &ast.IfStmt{
		Cond: &ast.UnaryExpr{Op: ast.OpNot, X: top},
		Then: r.onFailure,
	})

	// Release temporaries, longest condition chains first so a chain's
	// own guards are still alive when it is evaluated.
	sort.SliceStable(r.groups, func(i, j int) bool {
		return len(r.groups[i].conds) > len(r.groups[j].conds)
	})
	for _, g := range r.groups {
		del := &ast.DelStmt{Names: g.names}
		if len(g.conds) == 0 {
			out = append(out, del)
			continue
		}
		var cond ast.Expr
		if len(g.conds) == 1 {
			cond = g.conds[0]
		} else {
			cond = &ast.BoolExpr{Op: ast.OpAnd, Vals: g.conds}
		}
		out = append(out, &ast.IfStmt{Cond: cond, Then: []ast.Stmt{del}})
	}

	for _, s := range out {
		ast.Stamp(s, a.Span())
	}
	return out
}

// visit transforms one expression, returning the expression the rewritten
// code evaluates in its place and the explanation fragment describing it.
func (r *rewriter) visit(e ast.Expr) (ast.Expr, string) {
	switch v := e.(type) {
	case *ast.NameExpr:
		return r.visitName(v)
	case *ast.BoolExpr:
		return r.visitBoolOp(v)
	case *ast.UnaryExpr:
		return r.visitUnary(v)
	case *ast.BinaryExpr:
		return r.visitBinary(v)
	case *ast.CallExpr:
		return r.visitCall(v)
	case *ast.AttrExpr:
		return r.visitAttr(v)
	case *ast.CompareExpr:
		return r.visitCompare(v)
	default:
		res := r.assign(e)
		return res, r.explanationParam(r.display(res))
	}
}

// visitName leaves the name in place. The explanation shows the bound
// value when the name resolves and the bare source text when it does not,
// decided at failure time so an unbound name never evaluates.
func (r *rewriter) visitName(name *ast.NameExpr) (ast.Expr, string) {
	return name, r.explanationParam(r.display(name))
}

// visitBoolOp unrolls a short-circuit chain into nested conditionals so
// later operands only evaluate when the chain is still undecided, exactly
// as the original expression would. The failure block mirrors the same
// nesting: each operand's explanation is formatted and collected under an
// if replica of the conditions that let it evaluate, so a short-circuited
// operand is never formatted and its unassigned temporaries never load.
func (r *rewriter) visitBoolOp(boolop *ast.BoolExpr) (ast.Expr, string) {
	resVar := r.variable()
	explList := r.assign(&ast.ListExpr{})
	isOr := boolop.Op == ast.OpOr
	save := r.cur
	failSave := r.fail
	levels := len(boolop.Vals) - 1
	r.pushFormatContext()
	var cond ast.Expr
	for i, operand := range boolop.Vals {
		if i > 0 {
			inner := &ast.IfStmt{Cond: cond}
			r.emitFail(inner)
			r.fail = &inner.Then
		}
		r.pushFormatContext()
		res, expl := r.visit(operand)
		r.emit(&ast.AssignStmt{Target: &ast.NameExpr{Name: resVar}, Value: res})
		explFormat := r.popFormatContext(&ast.StrLit{V: expl})
		r.emitFail(&ast.ExprStmt{X: &ast.CallExpr{
			Fn:   &ast.AttrExpr{X: &ast.NameExpr{Name: explList.Name}, Name: "append"},
			Args: []ast.Expr{explFormat},
		}})
		if i < levels {
			cond = res
			if isOr {
				cond = &ast.UnaryExpr{Op: ast.OpNot, X: res}
			}
			r.enterCond(cond)
		}
	}
	r.leaveCond(levels)
	r.cur = save
	r.fail = failSave
	template := r.helper("format_boolop",
		&ast.NameExpr{Name: explList.Name},
		&ast.BoolLit{V: isOr})
	expl := r.popFormatContext(template)
	return &ast.NameExpr{Name: resVar}, r.explanationParam(expl)
}

func (r *rewriter) visitUnary(unary *ast.UnaryExpr) (ast.Expr, string) {
	operandRes, operandExpl := r.visit(unary.X)
	res := r.assign(&ast.UnaryExpr{Op: unary.Op, X: operandRes})
	return res, unary.Op.String() + operandExpl
}

// visitBinary opens a nested explanation scope for the computed value, so
// a failure shows the operator's result alongside the operand rendering
// ("assert 2 == 3 ... where 2 = (1 + 1)").
func (r *rewriter) visitBinary(binop *ast.BinaryExpr) (ast.Expr, string) {
	leftRes, leftExpl := r.visit(binop.L)
	rightRes, rightExpl := r.visit(binop.R)
	expl := fmt.Sprintf("(%s %s %s)", leftExpl, binop.Op, rightExpl)
	res := r.assign(&ast.BinaryExpr{Op: binop.Op, L: leftRes, R: rightRes})
	resExpl := r.explanationParam(r.display(res))
	return res, fmt.Sprintf("%s\n{%s = %s\n}", resExpl, resExpl, expl)
}

func (r *rewriter) visitCall(call *ast.CallExpr) (ast.Expr, string) {
	fnRes, fnExpl := r.visit(call.Fn)
	var argExpls []string
	newCall := &ast.CallExpr{Fn: fnRes}
	for _, arg := range call.Args {
		res, expl := r.visit(arg)
		newCall.Args = append(newCall.Args, res)
		argExpls = append(argExpls, expl)
	}
	for i, name := range call.KwNames {
		res, expl := r.visit(call.KwVals[i])
		newCall.KwNames = append(newCall.KwNames, name)
		newCall.KwVals = append(newCall.KwVals, res)
		argExpls = append(argExpls, name+": "+expl)
	}
	if call.Spread != nil {
		res, expl := r.visit(call.Spread)
		newCall.Spread = res
		argExpls = append(argExpls, "..."+expl)
	}
	expl := fmt.Sprintf("%s(%s)", fnExpl, strings.Join(argExpls, ", "))
	res := r.assign(newCall)
	resExpl := r.explanationParam(r.display(res))
	return res, fmt.Sprintf("%s\n{%s = %s\n}", resExpl, resExpl, expl)
}

func (r *rewriter) visitAttr(attr *ast.AttrExpr) (ast.Expr, string) {
	value, valueExpl := r.visit(attr.X)
	res := r.assign(&ast.AttrExpr{X: value, Name: attr.Name})
	resExpl := r.explanationParam(r.display(res))
	expl := fmt.Sprintf("%s\n{%s = %s.%s\n}", resExpl, resExpl, valueExpl, attr.Name)
	return res, expl
}

// visitCompare stores every link's outcome in its own temporary, so the
// explanation can name the first failing link while each operand still
// evaluates exactly once.
func (r *rewriter) visitCompare(comp *ast.CompareExpr) (ast.Expr, string) {
	r.pushFormatContext()
	leftRes, leftExpl := r.visit(comp.Left)
	resVars := make([]string, len(comp.Ops))
	for i := range comp.Ops {
		resVars[i] = r.variable()
	}
	var (
		syms    ast.ListExpr
		loads   ast.ListExpr
		expls   ast.ListExpr
		results ast.ListExpr
	)
	results.Elems = append(results.Elems, leftRes)
	for i, op := range comp.Ops {
		nextRes, nextExpl := r.visit(comp.Rights[i])
		results.Elems = append(results.Elems, nextRes)
		sym := op.String()
		syms.Elems = append(syms.Elems, &ast.StrLit{V: sym})
		loads.Elems = append(loads.Elems, &ast.NameExpr{Name: resVars[i]})
		expls.Elems = append(expls.Elems, &ast.StrLit{V: fmt.Sprintf("%s %s %s", leftExpl, sym, nextExpl)})
		r.emit(&ast.AssignStmt{
			Target: &ast.NameExpr{Name: resVars[i]},
			Value: &ast.CompareExpr{
				Left:   leftRes,
				Ops:    []ast.CmpOp{op},
				Rights: []ast.Expr{nextRes},
			},
		})
		leftRes, leftExpl = nextRes, nextExpl
	}
	explCall := r.helper("call_reprcompare", &syms, &loads, &expls, &results)
	var res ast.Expr
	if len(comp.Ops) > 1 {
		chain := &ast.BoolExpr{Op: ast.OpAnd}
		for _, v := range resVars {
			chain.Vals = append(chain.Vals, &ast.NameExpr{Name: v})
		}
		res = chain
	} else {
		res = &ast.NameExpr{Name: resVars[0]}
	}
	return res, r.explanationParam(r.popFormatContext(explCall))
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"attest/internal/ast"
	"attest/internal/diag"
	"attest/internal/parser"
	"attest/internal/rewrite"
	"attest/internal/source"
)

var parseShowRewrite bool

func init() {
	parseCmd.Flags().BoolVar(&parseShowRewrite, "rewrite", false, "dump the tree after assertion rewriting")
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.att",
	Short: "Parse an attest source file and dump its statement tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	unit, err := source.Load(args[0])
	if err != nil {
		return err
	}
	file, err := parser.ParseUnit(unit, diag.Writer{Out: cmd.ErrOrStderr(), Min: diag.SevError})
	if err != nil {
		return err
	}
	if parseShowRewrite {
		if !rewrite.Rewrite(file) {
			fmt.Fprintln(cmd.ErrOrStderr(), "module opted out of rewriting")
		}
	}
	out := cmd.OutOrStdout()
	for _, s := range file.Body {
		dumpStmt(out, file, s, 0)
	}
	return nil
}

func dumpStmt(w io.Writer, file *ast.File, s ast.Stmt, depth int) {
	pad := strings.Repeat("  ", depth)
	pos := file.Pos(s.Span())
	line := func(format string, args ...any) {
		fmt.Fprintf(w, "%s\t%s%s\n", pos, pad, fmt.Sprintf(format, args...))
	}
	block := func(body []ast.Stmt) {
		for _, inner := range body {
			dumpStmt(w, file, inner, depth+1)
		}
	}
	switch v := s.(type) {
	case *ast.ExprStmt:
		line("expr %s", ast.Text(v.X))
	case *ast.LetStmt:
		line("let %s = %s", v.Name, ast.Text(v.Value))
	case *ast.AssignStmt:
		line("%s = %s", ast.Text(v.Target), ast.Text(v.Value))
	case *ast.AssertStmt:
		if v.Msg != nil {
			line("assert %s, %s", ast.Text(v.Test), ast.Text(v.Msg))
		} else {
			line("assert %s", ast.Text(v.Test))
		}
	case *ast.IfStmt:
		line("if %s", ast.Text(v.Cond))
		block(v.Then)
		if len(v.Else) > 0 {
			line("else")
			block(v.Else)
		}
	case *ast.WhileStmt:
		line("while %s", ast.Text(v.Cond))
		block(v.Body)
	case *ast.ForStmt:
		line("for %s in %s", v.Var, ast.Text(v.Iter))
		block(v.Body)
	case *ast.FnStmt:
		line("fn %s(%s)", v.Name, strings.Join(v.Params, ", "))
		block(v.Body)
	case *ast.ReturnStmt:
		if v.Value != nil {
			line("return %s", ast.Text(v.Value))
		} else {
			line("return")
		}
	case *ast.BreakStmt:
		line("break")
	case *ast.ContinueStmt:
		line("continue")
	case *ast.ImportStmt:
		line("import %q as %s", v.Path, v.Alias)
	case *ast.RaiseStmt:
		line("raise %s", ast.Text(v.X))
	case *ast.PragmaStmt:
		line("pragma %s", v.Name)
	case *ast.DelStmt:
		line("del %s", strings.Join(v.Names, ", "))
	default:
		line("%T", s)
	}
}

package interp

import (
	"fmt"
	"io"

	"attest/internal/ast"
	"attest/internal/source"
)

// CodeVersion identifies the compiled-code format produced by this runtime.
// It participates in the cache artifact tag, so bumping it invalidates
// every previously cached artifact.
const CodeVersion uint8 = 1

// Code is an executable unit: a validated tree plus the position table
// needed to report failures after the source text is gone.
type Code struct {
	Path string
	File *ast.File
}

// Pos maps a span to a line:column inside the unit this code came from.
func (c *Code) Pos(sp source.Span) source.LineCol {
	return c.File.Pos(sp)
}

// Compile validates a parsed tree and wraps it into an executable unit.
// The checks are structural: placement errors the parser cannot see.
func Compile(f *ast.File) (*Code, error) {
	if err := checkBody(f.Body, false, true); err != nil {
		return nil, err
	}
	return &Code{Path: f.Path, File: f}, nil
}

// EncodeTo serializes the code for the artifact cache.
func (c *Code) EncodeTo(w io.Writer) error {
	return ast.EncodeFile(w, c.File)
}

// DecodeCode deserializes a cached artifact payload.
func DecodeCode(r io.Reader) (*Code, error) {
	f, err := ast.DecodeFile(r)
	if err != nil {
		return nil, err
	}
	return &Code{Path: f.Path, File: f}, nil
}

func checkBody(body []ast.Stmt, inLoop, topLevel bool) error {
	preamble := topLevel
	for _, s := range body {
		switch v := s.(type) {
		case *ast.PragmaStmt:
			if !preamble {
				return fmt.Errorf("pragma %q must appear in the module preamble", v.Name)
			}
			continue
		case *ast.BreakStmt:
			if !inLoop {
				return fmt.Errorf("break outside of a loop")
			}
		case *ast.ContinueStmt:
			if !inLoop {
				return fmt.Errorf("continue outside of a loop")
			}
		case *ast.WhileStmt:
			if err := checkBody(v.Body, true, false); err != nil {
				return err
			}
		case *ast.ForStmt:
			if err := checkBody(v.Body, true, false); err != nil {
				return err
			}
		case *ast.IfStmt:
			if err := checkBody(v.Then, inLoop, false); err != nil {
				return err
			}
			if err := checkBody(v.Else, inLoop, false); err != nil {
				return err
			}
		case *ast.FnStmt:
			seen := make(map[string]bool, len(v.Params))
			for _, p := range v.Params {
				if seen[p] {
					return fmt.Errorf("fn %s: duplicate parameter %q", v.Name, p)
				}
				seen[p] = true
			}
			if err := checkBody(v.Body, false, false); err != nil {
				return err
			}
		}
		if !isDocString(s) {
			preamble = false
		}
	}
	return nil
}

func isDocString(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	_, ok = es.X.(*ast.StrLit)
	return ok
}

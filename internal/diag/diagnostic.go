package diag

import (
	"fmt"

	"attest/internal/source"
)

// Diagnostic is one report from a phase: lexing, parsing, rewriting, loading.
type Diagnostic struct {
	Severity Severity
	Path     string
	Pos      source.LineCol
	Message  string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	if d.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", d.Path, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%s: %s: %s", d.Path, d.Pos, d.Severity, d.Message)
}

package diag

import (
	"fmt"
	"io"
	"sync"

	"attest/internal/source"
)

// Reporter is the minimal contract for receiving diagnostics from phases.
// Implementations: Bag (collects), Nop, Writer (streams to an io.Writer).
type Reporter interface {
	Report(d Diagnostic)
}

// Tracef reports a formatted SevTrace diagnostic.
func Tracef(r Reporter, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{Severity: SevTrace, Message: fmt.Sprintf(format, args...)})
}

// Errorf reports a formatted SevError diagnostic at a position.
func Errorf(r Reporter, path string, pos source.LineCol, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{
		Severity: SevError,
		Path:     path,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Nop discards every diagnostic.
type Nop struct{}

func (Nop) Report(Diagnostic) {}

// Bag accumulates diagnostics in memory. Safe for concurrent use.
type Bag struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (b *Bag) Report(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags = append(b.diags, d)
}

// All returns a snapshot of the collected diagnostics.
func (b *Bag) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}

// HasErrors reports whether any SevError diagnostic was collected.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Writer streams diagnostics at or above Min to Out.
type Writer struct {
	Out io.Writer
	Min Severity
}

func (w Writer) Report(d Diagnostic) {
	if w.Out == nil || d.Severity < w.Min {
		return
	}
	_, _ = fmt.Fprintln(w.Out, d.String())
}

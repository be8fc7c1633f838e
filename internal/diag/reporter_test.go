package diag

import (
	"strings"
	"testing"

	"attest/internal/source"
)

func TestBagCollectsAndFlagsErrors(t *testing.T) {
	var bag Bag
	Tracef(&bag, "rewriting %q", "a.att")
	if bag.HasErrors() {
		t.Error("trace must not count as error")
	}
	Errorf(&bag, "a.att", source.LineCol{Line: 3, Col: 7}, "unexpected token %q", "}")
	if !bag.HasErrors() {
		t.Error("expected HasErrors after Errorf")
	}
	all := bag.All()
	if len(all) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(all))
	}
	if got := all[1].String(); got != `a.att:3:7: error: unexpected token "}"` {
		t.Errorf("String() = %q", got)
	}
}

func TestWriterRespectsMinSeverity(t *testing.T) {
	var sb strings.Builder
	w := Writer{Out: &sb, Min: SevWarning}
	w.Report(Diagnostic{Severity: SevTrace, Message: "noise"})
	w.Report(Diagnostic{Severity: SevError, Message: "boom"})
	out := sb.String()
	if strings.Contains(out, "noise") {
		t.Error("trace leaked through Min filter")
	}
	if !strings.Contains(out, "boom") {
		t.Error("error not written")
	}
}

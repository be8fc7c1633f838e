package interp

import (
	"fmt"

	"attest/internal/source"
)

// Failure kinds.
const (
	AssertionError = "AssertionError"
	TypeError      = "TypeError"
	NameError      = "NameError"
	KeyError       = "KeyError"
	IndexError     = "IndexError"
	ImportError    = "ImportError"
	GenericError   = "Error"
)

// Raise is a script-level failure travelling up the Go call stack as an
// error. Only genuine raises (assertion failures, runtime errors of the
// script) propagate out of a module load.
type Raise struct {
	Kind string
	Msg  string
	Path string
	Pos  source.LineCol
}

func (r *Raise) Error() string {
	if r.Msg == "" {
		return r.Kind
	}
	return r.Kind + ": " + r.Msg
}

// Where renders the failure position, empty when unknown.
func (r *Raise) Where() string {
	if r.Path == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.Path, r.Pos)
}

func raisef(kind string, format string, args ...any) *Raise {
	return &Raise{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// locate fills in the failure position if it is still unset, so the
// innermost located frame wins.
func locate(err error, code *Code, sp source.Span) error {
	r, ok := err.(*Raise)
	if !ok || r.Path != "" || code == nil {
		return err
	}
	r.Path = code.Path
	r.Pos = code.Pos(sp)
	return r
}

package saferepr

import (
	"strings"

	"github.com/google/go-cmp/cmp"

	"attest/internal/interp"
)

// ReprCompare builds a rich explanation for one failed comparison, or
// returns nil when the default "left op right" rendering is good enough.
// Only equality of containers and strings earns a structural diff.
func ReprCompare(op string, left, right interp.Value) []string {
	if op != "==" {
		return nil
	}
	switch left.(type) {
	case interp.Str, *interp.List, *interp.Map:
	default:
		return nil
	}
	if left.Kind() != right.Kind() {
		return nil
	}
	summary := ReprN(left, 60) + " " + op + " " + ReprN(right, 60)
	diff := cmp.Diff(toGo(left, 0), toGo(right, 0))
	if diff == "" {
		return nil
	}
	lines := []string{summary, "Full diff:"}
	for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		lines = append(lines, "  "+l)
	}
	return lines
}

// CallReprCompare selects the explanation for a comparison chain: the
// first false link wins, and a custom comparison rendering replaces the
// default template when one exists.
func CallReprCompare(ops []string, results []bool, expls []string, objs []interp.Value) string {
	i := len(ops) - 1
	for k, res := range results {
		if !res {
			i = k
			break
		}
	}
	if custom := ReprCompare(ops[i], objs[i], objs[i+1]); custom != nil {
		return strings.Join(custom, "\n~")
	}
	return expls[i]
}

// FormatBoolOp renders a short-circuit chain explanation.
func FormatBoolOp(explanations []string, isOr bool) string {
	sep := " and "
	if isOr {
		sep = " or "
	}
	return "(" + strings.Join(explanations, sep) + ")"
}

// toGo lowers a runtime value to plain Go data so go-cmp can diff it.
func toGo(v interp.Value, depth int) any {
	if depth >= maxDepth {
		return "..."
	}
	switch x := v.(type) {
	case interp.Nothing:
		return nil
	case interp.Bool:
		return bool(x)
	case interp.Int:
		return int64(x)
	case interp.Float:
		return float64(x)
	case interp.Str:
		return string(x)
	case *interp.List:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = toGo(e, depth+1)
		}
		return out
	case *interp.Map:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			out[k] = toGo(val, depth+1)
		}
		return out
	default:
		return interp.Literal(v)
	}
}

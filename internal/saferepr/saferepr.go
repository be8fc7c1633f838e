// Package saferepr renders runtime values and assembles failure
// explanations for rewritten assertions.
//
// The explanation protocol is line based: "{" opens a nested
// sub-explanation, "}" closes it, and "~" marks an indented continuation.
// The rewriter emits raw protocol strings; FormatExplanation collapses
// them into the human-readable block shown on failure.
package saferepr

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"attest/internal/interp"
)

// MaxSize bounds a single rendered value in display cells. Longer
// renderings are cut in the middle so both ends stay visible.
const MaxSize = 240

const maxDepth = 12

// Repr renders a value for an explanation: literal form, bounded size,
// bounded depth so cyclic containers cannot run away.
func Repr(v interp.Value) string {
	return ReprN(v, MaxSize)
}

// ReprN is Repr with an explicit size bound.
func ReprN(v interp.Value, maxsize int) string {
	s := render(v, 0)
	return truncate(s, maxsize)
}

func render(v interp.Value, depth int) string {
	if depth >= maxDepth {
		return "..."
	}
	switch x := v.(type) {
	case *interp.List:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = render(e, depth+1)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *interp.Map:
		parts := make([]string, 0, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			parts = append(parts, render(interp.Str(k), depth+1)+": "+render(val, depth+1))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return interp.Literal(v)
	}
}

// truncate cuts s to at most maxsize display cells, replacing the middle
// with an ellipsis. Width is measured in cells, not bytes, so wide runes
// do not let a rendering overshoot the bound on screen.
func truncate(s string, maxsize int) string {
	if maxsize <= 0 || runewidth.StringWidth(s) <= maxsize {
		return s
	}
	half := (maxsize - 3) / 2
	if half < 1 {
		half = 1
	}
	left := runewidth.Truncate(s, half, "")
	right := truncateLeft(s, half)
	return left + "..." + right
}

func truncateLeft(s string, width int) string {
	runes := []rune(s)
	w := 0
	i := len(runes)
	for i > 0 && w < width {
		i--
		w += runewidth.RuneWidth(runes[i])
	}
	return string(runes[i:])
}

// Format expands %(name)s placeholders in a template with pre-rendered
// parameter strings. Unknown placeholders are left intact so a template
// bug degrades to visible noise instead of a lost explanation.
func Format(tmpl string, params map[string]string) string {
	var sb strings.Builder
	for {
		i := strings.Index(tmpl, "%(")
		if i < 0 {
			sb.WriteString(tmpl)
			return sb.String()
		}
		j := strings.Index(tmpl[i:], ")s")
		if j < 0 {
			sb.WriteString(tmpl)
			return sb.String()
		}
		name := tmpl[i+2 : i+j]
		sb.WriteString(tmpl[:i])
		if val, ok := params[name]; ok {
			sb.WriteString(val)
		} else {
			sb.WriteString(tmpl[i : i+j+2])
		}
		tmpl = tmpl[i+j+2:]
	}
}

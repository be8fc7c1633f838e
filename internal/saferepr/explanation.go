package saferepr

import "strings"

// FormatExplanation collapses a raw explanation into displayable lines.
//
// Raw explanations nest: "{expl\n...\n}" wraps the evaluation of a
// sub-expression, and lines starting with "~" are continuations indented
// under their parent. The first nested block under a line reads
// "where ...", subsequent siblings read "and   ...".
func FormatExplanation(explanation string) string {
	lines := splitExplanation(explanation)
	result := formatLines(lines)
	return strings.Join(result, "\n")
}

// splitExplanation regroups physical lines into protocol lines: only
// lines opening with a protocol byte stand alone, embedded newlines from
// rendered values fold back into their line as a literal \n.
func splitExplanation(explanation string) []string {
	raw := strings.Split(explanation, "\n")
	lines := []string{raw[0]}
	for _, l := range raw[1:] {
		if l != "" && strings.IndexByte("{}~>", l[0]) >= 0 {
			lines = append(lines, l)
		} else {
			lines[len(lines)-1] += "\\n" + l
		}
	}
	return lines
}

func formatLines(lines []string) []string {
	result := []string{lines[0]}
	stack := []int{0}
	stackcnt := []int{0}
	for _, line := range lines[1:] {
		switch line[0] {
		case '{':
			conj := "where "
			if stackcnt[len(stackcnt)-1] > 0 {
				conj = "and   "
			}
			stack = append(stack, len(result))
			stackcnt[len(stackcnt)-1]++
			stackcnt = append(stackcnt, 0)
			result = append(result, " +"+strings.Repeat("  ", len(stack)-1)+conj+line[1:])
		case '}':
			stack = stack[:len(stack)-1]
			stackcnt = stackcnt[:len(stackcnt)-1]
			result[stack[len(stack)-1]] += line[1:]
		default: // '~' or '>'
			indent := len(stack)
			if line[0] == '>' {
				indent--
			}
			result = append(result, strings.Repeat("  ", indent)+line[1:])
		}
	}
	return result
}

package source

import (
	"slices"
)

// normalizeCRLF replaces every \r\n with \n, leaving lone \r untouched.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}
	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// ToLineCol maps a byte offset to a 1-based line:column using a table of
// newline offsets. Compiled artifacts carry the table so positions survive
// a cache round trip without the source text.
func ToLineCol(lineIdx []uint32, off uint32) LineCol {
	return toLineCol(lineIdx, off)
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// An empty index means the whole file is one line.
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	// Binary search for the first newline at or after off.
	lo, hi := 0, len(lineIdx)
	for lo < hi {
		mid := (lo + hi) / 2
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	line := uint32(lo) + 1
	col := off + 1
	if lo > 0 {
		col = off - lineIdx[lo-1]
	}
	return LineCol{Line: line, Col: col}
}

package source

import (
	"fmt"
	"os"
)

// Unit captures the content and identity of one script file. A Unit is
// immutable once constructed: the loader reads it, rewrites a tree built
// from it, and discards it after compilation.
type Unit struct {
	Path    string
	Content []byte
	LineIdx []uint32 // byte offsets of '\n', for offset -> line:col mapping
	ModTime int64    // unix seconds of the file's last modification
	Virtual bool     // constructed from memory (tests, stdin)
}

// Load reads a script file from disk, normalizing line endings and
// stripping a UTF-8 BOM if present.
func Load(path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return &Unit{
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		ModTime: info.ModTime().Unix(),
	}, nil
}

// NewVirtual constructs an in-memory Unit, mainly for tests.
func NewVirtual(path string, content []byte, modTime int64) *Unit {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return &Unit{
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		ModTime: modTime,
		Virtual: true,
	}
}

// LineCol maps a byte offset inside the unit to a 1-based line:column.
func (u *Unit) LineCol(off uint32) LineCol {
	return toLineCol(u.LineIdx, off)
}

package lexer

import (
	"attest/internal/source"
)

// Cursor is a byte-oriented window over a unit's content.
type Cursor struct {
	src []byte
	Off uint32
}

func NewCursor(u *source.Unit) Cursor {
	return Cursor{src: u.Content}
}

func (c *Cursor) EOF() bool {
	return c.Off >= uint32(len(c.src))
}

// Peek returns the current byte without consuming it. Returns 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.src[c.Off]
}

// PeekAt returns the byte n positions ahead. Returns 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= uint32(len(c.src)) {
		return 0
	}
	return c.src[c.Off+n]
}

// Bump consumes and returns the current byte.
func (c *Cursor) Bump() byte {
	b := c.Peek()
	if !c.EOF() {
		c.Off++
	}
	return b
}

// Slice returns the source text between two offsets.
func (c *Cursor) Slice(start, end uint32) string {
	return string(c.src[start:end])
}

// Package cache persists compiled, rewritten modules next to their
// sources so repeated runs skip the parse and rewrite work.
//
// An artifact is valid only for the exact source mtime it was built from
// and the exact code/rewrite format pair of this binary. Lookup fails
// closed: any anomaly is a miss, never an error.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fortio.org/safecast"

	"attest/internal/diag"
	"attest/internal/interp"
	"attest/internal/rewrite"
	"attest/internal/source"
)

// DirName is the per-directory artifact folder.
const DirName = "__attcache__"

const ext = ".atc"

const headerSize = 8

// magic is the artifact tag. It bakes in both format versions, so bumping
// either orphans every existing artifact.
var magic = [4]byte{'a', 't', interp.CodeVersion, rewrite.FormatRevision}

// Tag names the format pair in artifact file names, keeping artifacts from
// different binaries side by side instead of thrashing one file.
func Tag() string {
	return fmt.Sprintf("att-%d-rewrite%d", interp.CodeVersion, rewrite.FormatRevision)
}

// Store reads and writes cached artifacts.
type Store struct {
	// Dir overrides the artifact directory. Empty means a DirName folder
	// next to each source file.
	Dir      string
	Disabled bool
	Reporter diag.Reporter
}

// Path returns the canonical artifact path for a source file.
func (s *Store) Path(srcPath string) string {
	dir := s.Dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(srcPath), DirName)
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	return filepath.Join(dir, base+"."+Tag()+ext)
}

// Lookup returns the cached code for a source unit, or nil on any miss:
// no artifact, unreadable header, tag mismatch, stale mtime, or an
// undecodable payload.
func (s *Store) Lookup(src *source.Unit) *interp.Code {
	if s == nil || s.Disabled || src.Virtual {
		return nil
	}
	p := s.Path(src.Path)
	f, err := os.Open(p)
	if err != nil {
		diag.Tracef(s.Reporter, "cache miss (no artifact) for %s", src.Path)
		return nil
	}
	defer f.Close()

	var header [headerSize]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		diag.Tracef(s.Reporter, "cache miss (short header) for %s", src.Path)
		return nil
	}
	if !bytes.Equal(header[:4], magic[:]) {
		diag.Tracef(s.Reporter, "cache miss (tag mismatch) for %s", src.Path)
		return nil
	}
	want, err := safecast.Conv[int32](src.ModTime)
	if err != nil {
		diag.Tracef(s.Reporter, "cache miss (mtime out of range) for %s", src.Path)
		return nil
	}
	got := int32(binary.LittleEndian.Uint32(header[4:8]))
	if got != want {
		diag.Tracef(s.Reporter, "cache miss (stale mtime) for %s", src.Path)
		return nil
	}
	code, err := interp.DecodeCode(f)
	if err != nil {
		diag.Tracef(s.Reporter, "cache miss (bad payload) for %s: %v", src.Path, err)
		return nil
	}
	diag.Tracef(s.Reporter, "cache hit for %s", src.Path)
	return code
}

// Install writes the artifact for a source unit. The payload lands in a
// process-unique temp file first and is renamed onto the canonical path,
// so concurrent writers and killed processes never leave a torn artifact
// behind. Windows cannot rename over an existing file, so there the write
// goes straight to the canonical path, a documented weaker guarantee.
func (s *Store) Install(src *source.Unit, code *interp.Code) error {
	if s == nil || s.Disabled || src.Virtual {
		return nil
	}
	mtime, err := safecast.Conv[int32](src.ModTime)
	if err != nil {
		return fmt.Errorf("cache install %s: mtime out of range", src.Path)
	}
	p := s.Path(src.Path)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cache install %s: %w", src.Path, err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	var mt [4]byte
	binary.LittleEndian.PutUint32(mt[:], uint32(mtime))
	buf.Write(mt[:])
	if err := code.EncodeTo(&buf); err != nil {
		return fmt.Errorf("cache install %s: encode: %w", src.Path, err)
	}

	if runtime.GOOS == "windows" {
		if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("cache install %s: %w", src.Path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), fmt.Sprintf(".%d-*", os.Getpid()))
	if err != nil {
		return fmt.Errorf("cache install %s: %w", src.Path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("cache install %s: %w", src.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache install %s: %w", src.Path, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("cache install %s: %w", src.Path, err)
	}
	diag.Tracef(s.Reporter, "cached %s", src.Path)
	return nil
}

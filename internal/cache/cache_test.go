package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"attest/internal/diag"
	"attest/internal/interp"
	"attest/internal/parser"
	"attest/internal/rewrite"
	"attest/internal/source"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func compileFile(t *testing.T, path string) (*source.Unit, *interp.Code) {
	t.Helper()
	unit, err := source.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	file, err := parser.ParseUnit(unit, diag.Nop{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rewrite.Rewrite(file)
	code, err := interp.Compile(file)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return unit, code
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_sample.att", "let x = 1\nassert x == 1\n")
	unit, code := compileFile(t, p)

	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := os.Stat(s.Path(p)); err != nil {
		t.Fatalf("canonical artifact missing: %v", err)
	}

	got := s.Lookup(unit)
	if got == nil {
		t.Fatal("lookup missed a fresh artifact")
	}
	if got.Path != code.Path {
		t.Errorf("decoded path %q, want %q", got.Path, code.Path)
	}
	if len(got.File.Body) != len(code.File.Body) {
		t.Errorf("decoded %d statements, want %d", len(got.File.Body), len(code.File.Body))
	}
}

func TestStore_ArtifactExecutes(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_run.att", "let xs = [1, 2]\nassert len(xs) == 2\n")
	unit, code := compileFile(t, p)
	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatal(err)
	}
	got := s.Lookup(unit)
	if got == nil {
		t.Fatal("miss")
	}
	it := interp.New(diag.Nop{})
	rewrite.Install(it)
	if err := it.Exec(got, it.NewModuleEnv()); err != nil {
		t.Fatalf("cached code failed to execute: %v", err)
	}
}

func TestStore_StaleMtimeMisses(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_stale.att", "let x = 1\n")
	unit, code := compileFile(t, p)
	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatal(err)
	}
	stale := *unit
	stale.ModTime = unit.ModTime + 5
	if s.Lookup(&stale) != nil {
		t.Error("lookup returned an artifact for a changed source")
	}
}

func TestStore_TagMismatchMisses(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_tag.att", "let x = 1\n")
	unit, code := compileFile(t, p)
	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(s.Path(p))
	if err != nil {
		t.Fatal(err)
	}
	raw[2]++ // version byte
	if err := os.WriteFile(s.Path(p), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if s.Lookup(unit) != nil {
		t.Error("lookup accepted a foreign format tag")
	}
}

func TestStore_CorruptArtifactsMiss(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_corrupt.att", "let x = 1\n")
	unit, code := compileFile(t, p)
	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatal(err)
	}

	cases := map[string]func(raw []byte) []byte{
		"truncated header": func(raw []byte) []byte { return raw[:5] },
		"truncated body":   func(raw []byte) []byte { return raw[:headerSize+3] },
		"garbage body": func(raw []byte) []byte {
			return append(raw[:headerSize:headerSize], 0xde, 0xad, 0xbe, 0xef)
		},
	}
	pristine, err := os.ReadFile(s.Path(p))
	if err != nil {
		t.Fatal(err)
	}
	for name, mangle := range cases {
		t.Run(name, func(t *testing.T) {
			raw := make([]byte, len(pristine))
			copy(raw, pristine)
			if err := os.WriteFile(s.Path(p), mangle(raw), 0o644); err != nil {
				t.Fatal(err)
			}
			if s.Lookup(unit) != nil {
				t.Error("lookup accepted a corrupt artifact")
			}
		})
	}
}

func TestStore_NoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_tmp.att", "let x = 1\n")
	unit, code := compileFile(t, p)
	s := &Store{}
	if err := s.Install(unit, code); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path(p)))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ext) {
			t.Errorf("stray file %q in artifact dir", e.Name())
		}
	}
}

func TestStore_DisabledAndVirtualAreNoops(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "test_off.att", "let x = 1\n")
	unit, code := compileFile(t, p)

	off := &Store{Disabled: true}
	if err := off.Install(unit, code); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(off.Path(p)); err == nil {
		t.Error("disabled store wrote an artifact")
	}
	if off.Lookup(unit) != nil {
		t.Error("disabled store returned an artifact")
	}

	virt := source.NewVirtual("v.att", []byte("let x = 1"), 0)
	s := &Store{}
	if err := s.Install(virt, code); err != nil {
		t.Fatal(err)
	}
	if s.Lookup(virt) != nil {
		t.Error("virtual unit produced an artifact")
	}
}

func TestStore_PathLayout(t *testing.T) {
	s := &Store{}
	got := s.Path("/src/pkg/test_a.att")
	want := filepath.Join("/src/pkg", DirName, "test_a."+Tag()+ext)
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}

	override := &Store{Dir: "/tmp/artifacts"}
	got = override.Path("/src/pkg/test_a.att")
	if filepath.Dir(got) != "/tmp/artifacts" {
		t.Errorf("Dir override ignored: %q", got)
	}
}

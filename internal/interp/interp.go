package interp

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"attest/internal/diag"
	"attest/internal/parser"
	"attest/internal/source"
)

// ModuleLoader resolves and materializes one module. Load declines with
// ok=false when the loader does not handle the path, letting the next
// loader (ultimately the plain one) proceed unmodified.
type ModuleLoader interface {
	Load(it *Interp, path string) (mod *Module, ok bool, err error)
}

// Interp owns the module registry and drives execution. One Interp is
// intended to serve one test session thread; the runner creates an Interp
// per file when executing files in parallel.
type Interp struct {
	Reporter diag.Reporter
	Stdout   io.Writer

	modules map[string]*Module
	natives map[string]*Module
	loaders []ModuleLoader
	core    *Env
}

func New(rep diag.Reporter) *Interp {
	if rep == nil {
		rep = diag.Nop{}
	}
	it := &Interp{
		Reporter: rep,
		Stdout:   os.Stdout,
		modules:  make(map[string]*Module),
		natives:  make(map[string]*Module),
	}
	it.core = coreEnv()
	it.RegisterNative("builtins", BuiltinsModule())
	return it
}

// AddLoader appends a module loader; loaders run in registration order.
func (it *Interp) AddLoader(l ModuleLoader) {
	it.loaders = append(it.loaders, l)
}

// RegisterNative installs a native module addressable as "attest:<name>".
func (it *Interp) RegisterNative(name string, m *Module) {
	it.natives[name] = m
}

// Lookup returns an already registered module.
func (it *Interp) Lookup(name string) (*Module, bool) {
	m, ok := it.modules[name]
	return m, ok
}

// Register adds a module to the registry. The loader registers a module
// before executing its body so self-referential imports resolve.
func (it *Interp) Register(m *Module) {
	it.modules[m.Name] = m
}

// Unregister removes a partially initialized module after its body failed.
func (it *Interp) Unregister(name string) {
	delete(it.modules, name)
}

// NewModuleEnv returns a fresh top-level scope chained to the core
// builtins.
func (it *Interp) NewModuleEnv() *Env {
	return NewEnv(it.core)
}

// Import resolves a module reference from a script in fromDir. Native
// "attest:" modules resolve from the native table; everything else is a
// source path tried through the loader chain, with the plain uncached
// loader as the final fallback.
func (it *Interp) Import(path, fromDir string) (*Module, error) {
	if strings.HasPrefix(path, "attest:") {
		if m, ok := it.natives[strings.TrimPrefix(path, "attest:")]; ok {
			return m, nil
		}
		return nil, raisef(ImportError, "unknown native module %q", path)
	}
	full := path
	if filepath.Ext(full) == "" {
		full += ".att"
	}
	if !filepath.IsAbs(full) {
		full = filepath.Join(fromDir, full)
	}
	if abs, err := filepath.Abs(full); err == nil {
		full = abs
	}
	if m, ok := it.modules[full]; ok {
		return m, nil
	}
	for _, l := range it.loaders {
		m, ok, err := l.Load(it, full)
		if err != nil {
			return nil, err
		}
		if ok {
			return m, nil
		}
	}
	return it.PlainLoad(full)
}

// PlainLoad is the host's normal loading path: read, parse, compile and
// execute with no rewriting and no cache. Rewriter abstains fall through
// to here so the original parse error surfaces naturally.
func (it *Interp) PlainLoad(path string) (*Module, error) {
	unit, err := source.Load(path)
	if err != nil {
		return nil, raisef(ImportError, "cannot load module %q: %v", path, err)
	}
	file, err := parser.ParseUnit(unit, it.Reporter)
	if err != nil {
		return nil, raisef(ImportError, "%v", err)
	}
	code, err := Compile(file)
	if err != nil {
		return nil, raisef(ImportError, "%s: %v", path, err)
	}
	mod := &Module{Name: path, Path: path, Env: it.NewModuleEnv()}
	it.Register(mod)
	if err := it.Exec(code, mod.Env); err != nil {
		it.Unregister(path)
		return nil, err
	}
	return mod, nil
}

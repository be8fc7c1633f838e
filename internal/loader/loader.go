// Package loader plugs assertion rewriting into module resolution.
//
// The hook sits in front of the interpreter's plain loading path. For
// eligible files it serves a cached artifact or parses, rewrites, compiles
// and caches; for everything else it declines and the plain path loads
// the module untouched.
package loader

import (
	"path/filepath"

	"attest/internal/cache"
	"attest/internal/diag"
	"attest/internal/interp"
	"attest/internal/parser"
	"attest/internal/rewrite"
	"attest/internal/source"
)

// DefaultPatterns match test files when the project configures nothing.
var DefaultPatterns = []string{"test_*.att", "*_test.att"}

// Hook loads eligible modules through the rewrite pipeline.
type Hook struct {
	Cache    *cache.Store
	Patterns []string // globs matched against the base name
	Roots    []string // entrypoint paths, always eligible
	Reporter diag.Reporter
}

// Eligible reports whether a path gets the rewrite treatment: session
// entrypoints always do, other files only when their base name matches a
// configured pattern.
func (h *Hook) Eligible(path string) bool {
	for _, r := range h.Roots {
		if r == path {
			return true
		}
	}
	pats := h.Patterns
	if len(pats) == 0 {
		pats = DefaultPatterns
	}
	base := filepath.Base(path)
	for _, p := range pats {
		if ok, err := filepath.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Load implements interp.ModuleLoader. Pipeline problems (unreadable
// source, parse or compile failure) abstain so the plain loading path
// reports them on its own terms; only execution failures of the loaded
// body propagate.
func (h *Hook) Load(it *interp.Interp, path string) (*interp.Module, bool, error) {
	if !h.Eligible(path) {
		diag.Tracef(h.Reporter, "not rewriting %s: name matches no pattern", path)
		return nil, false, nil
	}
	unit, err := source.Load(path)
	if err != nil {
		diag.Tracef(h.Reporter, "not rewriting %s: %v", path, err)
		return nil, false, nil
	}

	code := h.Cache.Lookup(unit)
	if code == nil {
		file, err := parser.ParseUnit(unit, h.Reporter)
		if err != nil {
			diag.Tracef(h.Reporter, "not rewriting %s: %v", path, err)
			return nil, false, nil
		}
		if !rewrite.Rewrite(file) {
			diag.Tracef(h.Reporter, "%s opted out of rewriting", path)
		}
		code, err = interp.Compile(file)
		if err != nil {
			diag.Tracef(h.Reporter, "not rewriting %s: %v", path, err)
			return nil, false, nil
		}
		// A full cache is a slower run, not a failed one.
		if err := h.Cache.Install(unit, code); err != nil {
			diag.Tracef(h.Reporter, "%v", err)
		}
	}

	mod := &interp.Module{Name: path, Path: path, Env: it.NewModuleEnv()}
	if h.Cache != nil && !h.Cache.Disabled {
		mod.CachePath = h.Cache.Path(path)
	}
	// Registered before execution so self-referential imports resolve;
	// rolled back if the body fails so a later import retries cleanly.
	it.Register(mod)
	if err := it.Exec(code, mod.Env); err != nil {
		it.Unregister(mod.Name)
		return nil, true, err
	}
	return mod, true, nil
}

package interp

// Module is a loaded script: its identity attributes plus the environment
// its body executed in. Top-level bindings are the export surface.
type Module struct {
	Name      string // registry key, normally the absolute source path
	Path      string // origin source path
	CachePath string // cached-artifact path, empty when loaded uncached
	Env       *Env
}

// Attr resolves an exported binding.
func (m *Module) Attr(name string) (Value, bool) {
	return m.Env.Get(name)
}

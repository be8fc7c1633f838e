package interp

// Env is a lexical scope: a mutable binding map chained to its parent.
type Env struct {
	parent *Env
	vars   map[string]Value
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]Value)}
}

// Get resolves a name through the scope chain.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Bound reports whether a name resolves anywhere in the chain. The
// rewriter's bare-name display rule uses this to decide between showing a
// runtime value and showing the literal source text.
func (e *Env) Bound(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Define binds a name in this scope, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	e.vars[name] = v
}

// Set rebinds an existing name wherever it is bound, or defines it here
// when unbound anywhere.
func (e *Env) Set(name string, v Value) {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

// Delete removes the nearest binding of name. Reports whether one existed.
func (e *Env) Delete(name string) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			delete(s.vars, name)
			return true
		}
	}
	return false
}

// Names returns the names bound directly in this scope.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.vars))
	for k := range e.vars {
		out = append(out, k)
	}
	return out
}

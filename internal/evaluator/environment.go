package evaluator

import (
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/modules"
)

// Environment is one scope in a chain of scopes.
type Environment struct {
	store     map[*Symbol]Value
	exports   []*Symbol
	outer     *Environment
	arena     *Arena
	modules   *modules.ModuleMap
	symbols   *SymbolMap
	reporter  *diagnostics.Reporter
	loopDepth int
	// sealed scopes are never assigned through from inner scopes.
	sealed bool
	// iteration scopes hold loop variables only; new names go to the
	// enclosing scope.
	iteration bool
}

func NewEnvironment(arena *Arena, mods *modules.ModuleMap, symbols *SymbolMap, reporter *diagnostics.Reporter) *Environment {
	if reporter == nil {
		reporter = diagnostics.Stderr()
	}
	return &Environment{
		store:    make(map[*Symbol]Value),
		arena:    arena,
		modules:  mods,
		symbols:  symbols,
		reporter: reporter,
	}
}

// NewEnclosedEnvironment creates a child scope sharing the arena and loop
// depth of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment(outer.arena, outer.modules, outer.symbols, outer.reporter)
	env.outer = outer
	env.loopDepth = outer.loopDepth
	return env
}

// NewRootEnvironment creates a scope sharing the caches of env but with its
// own arena and no parent.
func NewRootEnvironment(env *Environment, arena *Arena) *Environment {
	return NewEnvironment(arena, env.modules, env.symbols, env.reporter)
}

func (e *Environment) Arena() *Arena                   { return e.arena }
func (e *Environment) Modules() *modules.ModuleMap     { return e.modules }
func (e *Environment) Symbols() *SymbolMap             { return e.symbols }
func (e *Environment) Reporter() *diagnostics.Reporter { return e.reporter }
func (e *Environment) Outer() *Environment             { return e.outer }

func (e *Environment) Intern(name string) *Symbol {
	return e.symbols.Intern(name)
}

func (e *Environment) GetSymbol(sym *Symbol) (Value, bool) {
	for env := e; env != nil; env = env.outer {
		if v, ok := env.store[sym]; ok {
			return v, true
		}
	}
	return nil, false
}

func (e *Environment) Get(name string) (Value, bool) {
	return e.GetSymbol(e.Intern(name))
}

// GetString returns the string bound to name.
func (e *Environment) GetString(name string) (string, bool) {
	v, ok := e.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(*String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Set defines name in this scope.
func (e *Environment) Set(name string, val Value) Value {
	e.store[e.Intern(name)] = val
	return val
}

func (e *Environment) SetSymbol(sym *Symbol, val Value) {
	e.store[sym] = val
}

// Assign updates the innermost scope that binds name, or defines name in
// the nearest scope that is not a loop iteration. The search stops at a
// sealed scope.
func (e *Environment) Assign(name string, val Value) {
	sym := e.Intern(name)
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[sym]; ok {
			env.store[sym] = val
			return
		}
		if env.sealed {
			break
		}
	}
	e.definingScope().store[sym] = val
}

func (e *Environment) definingScope() *Environment {
	env := e
	for env.iteration && env.outer != nil {
		env = env.outer
	}
	return env
}

// Export adds name to the export list of this scope, or of the scope
// enclosing a loop.
func (e *Environment) Export(name string) {
	e = e.definingScope()
	sym := e.Intern(name)
	for _, s := range e.exports {
		if s == sym {
			return
		}
	}
	e.exports = append(e.exports, sym)
}

func (e *Environment) Exports() []*Symbol {
	return e.exports
}

// Define registers a builtin in this scope.
func (e *Environment) Define(name string, fn NativeFunction) {
	e.Set(name, &Builtin{Name: name, Fn: fn})
}

// copyCaptured copies the bindings of a captured scope into arena. The
// parent link is kept.
func (e *Environment) copyCaptured(arena *Arena, seen map[Value]Value) *Environment {
	if e == nil {
		return nil
	}
	env := &Environment{
		store:     make(map[*Symbol]Value, len(e.store)),
		outer:     e.outer,
		arena:     arena,
		modules:   e.modules,
		symbols:   e.symbols,
		reporter:  e.reporter,
		loopDepth: e.loopDepth,
		sealed:    e.sealed,
		iteration: e.iteration,
	}
	for sym, v := range e.store {
		env.store[sym] = copyValue(v, arena, seen)
	}
	return env
}

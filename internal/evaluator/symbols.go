package evaluator

import "sync"

// SymbolMap interns names. It lives as long as the process and is shared
// by every environment.
type SymbolMap struct {
	mu      sync.Mutex
	symbols map[string]*Symbol
}

func NewSymbolMap() *SymbolMap {
	return &SymbolMap{symbols: make(map[string]*Symbol)}
}

// Intern returns the unique symbol for name.
func (m *SymbolMap) Intern(name string) *Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sym, ok := m.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name}
	m.symbols[name] = sym
	return sym
}

func (m *SymbolMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.symbols)
}

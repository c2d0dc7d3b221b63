package evaluator

import (
	"strings"

	"github.com/nielssp/plet/internal/token"
)

const initialArrayCapacity = 16

// Array is a growable vector owned by an arena.
type Array struct {
	Elements []Value
	disposed bool
}

func (a *Array) Type() ValueType { return ARRAY_VALUE }
func (a *Array) Inspect() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, elem := range a.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(elem.Inspect())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) Len() int { return len(a.Elements) }

// Push appends v, doubling the capacity when the array is full.
func (a *Array) Push(v Value) {
	if len(a.Elements) == cap(a.Elements) {
		a.grow(len(a.Elements) + 1)
	}
	a.Elements = append(a.Elements, v)
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() Value {
	n := len(a.Elements)
	if n == 0 {
		return NIL
	}
	v := a.Elements[n-1]
	a.Elements[n-1] = nil
	a.Elements = a.Elements[:n-1]
	return v
}

// Resize sets the length to n. New cells are nil.
func (a *Array) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n > cap(a.Elements) {
		a.grow(n)
	}
	for len(a.Elements) < n {
		a.Elements = append(a.Elements, NIL)
	}
	for i := n; i < len(a.Elements); i++ {
		a.Elements[i] = nil
	}
	a.Elements = a.Elements[:n]
}

func (a *Array) grow(min int) {
	capacity := cap(a.Elements) * 2
	if capacity < initialArrayCapacity {
		capacity = initialArrayCapacity
	}
	for capacity < min {
		capacity *= 2
	}
	elements := make([]Value, len(a.Elements), capacity)
	copy(elements, a.Elements)
	a.Elements = elements
}

// index resolves a possibly negative index.
func (a *Array) index(i int64) (int, bool) {
	if i < 0 {
		i += int64(len(a.Elements))
	}
	if i < 0 || i >= int64(len(a.Elements)) {
		return 0, false
	}
	return int(i), true
}

// Entry is one key/value pair of an Object.
type Entry struct {
	Key   Value
	Value Value
}

// Object is an insertion-ordered association list.
type Object struct {
	Entries  []Entry
	disposed bool
}

func (o *Object) Type() ValueType { return OBJECT_VALUE }
func (o *Object) Inspect() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, entry := range o.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		if sym, ok := entry.Key.(*Symbol); ok && isNameKey(sym.Name) {
			sb.WriteString(sym.Name)
		} else {
			sb.WriteString(entry.Key.Inspect())
		}
		sb.WriteString(": ")
		sb.WriteString(entry.Value.Inspect())
	}
	sb.WriteByte('}')
	return sb.String()
}

// isNameKey reports whether name can be written as a bare object key.
func isNameKey(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		letter := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if !letter && (i == 0 || ch < '0' || ch > '9') {
			return false
		}
	}
	switch token.LookupIdent(name) {
	case token.NIL, token.TRUE, token.FALSE:
		return false
	}
	return true
}

func (o *Object) Len() int { return len(o.Entries) }

func (o *Object) find(key Value) int {
	for i, entry := range o.Entries {
		if Equals(entry.Key, key) {
			return i
		}
	}
	return -1
}

func (o *Object) Get(key Value) (Value, bool) {
	if i := o.find(key); i >= 0 {
		return o.Entries[i].Value, true
	}
	return nil, false
}

// Put sets key to value. An existing key keeps its position.
func (o *Object) Put(key, value Value) {
	if i := o.find(key); i >= 0 {
		o.Entries[i].Value = value
		return
	}
	o.Entries = append(o.Entries, Entry{Key: key, Value: value})
}

// GetName looks up a symbol key, falling back to a string key with the
// same name.
func (o *Object) GetName(sym *Symbol) (Value, bool) {
	if v, ok := o.Get(sym); ok {
		return v, true
	}
	return o.Get(&String{Value: sym.Name})
}

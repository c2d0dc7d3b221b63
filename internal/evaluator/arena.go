package evaluator

import "errors"

// ErrArenaDisposed is the panic value when allocating from a disposed arena.
var ErrArenaDisposed = errors.New("allocation from disposed arena")

// Arena owns the arrays, objects and closures created during one
// evaluation scope. Dispose releases them all at once.
type Arena struct {
	arrays   []*Array
	objects  []*Object
	closures []*Closure
	disposed bool
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) check() {
	if a.disposed {
		panic(ErrArenaDisposed)
	}
}

// NewArray allocates an empty array with room for capacity elements.
func (a *Arena) NewArray(capacity int) *Array {
	a.check()
	arr := &Array{Elements: make([]Value, 0, capacity)}
	a.arrays = append(a.arrays, arr)
	return arr
}

// ArrayOf allocates an array holding elements.
func (a *Arena) ArrayOf(elements ...Value) *Array {
	arr := a.NewArray(len(elements))
	arr.Elements = append(arr.Elements, elements...)
	return arr
}

func (a *Arena) NewObject() *Object {
	a.check()
	obj := &Object{}
	a.objects = append(a.objects, obj)
	return obj
}

func (a *Arena) NewClosure(c *Closure) *Closure {
	a.check()
	a.closures = append(a.closures, c)
	return c
}

func (a *Arena) Disposed() bool { return a.disposed }

// Size is the number of payloads owned by the arena.
func (a *Arena) Size() int {
	return len(a.arrays) + len(a.objects) + len(a.closures)
}

// Dispose clears every payload owned by the arena. Further allocation
// panics.
func (a *Arena) Dispose() {
	if a.disposed {
		return
	}
	for _, arr := range a.arrays {
		arr.Elements = nil
		arr.disposed = true
	}
	for _, obj := range a.objects {
		obj.Entries = nil
		obj.disposed = true
	}
	for _, c := range a.closures {
		c.Env = nil
		c.disposed = true
	}
	a.arrays, a.objects, a.closures = nil, nil, nil
	a.disposed = true
}

// CopyValue deep-copies v into arena. Scalars are shared.
func CopyValue(v Value, arena *Arena) Value {
	return copyValue(v, arena, make(map[Value]Value))
}

func copyValue(v Value, arena *Arena, seen map[Value]Value) Value {
	switch v := v.(type) {
	case *Array:
		if c, ok := seen[v]; ok {
			return c
		}
		arr := arena.NewArray(len(v.Elements))
		seen[v] = arr
		for _, elem := range v.Elements {
			arr.Elements = append(arr.Elements, copyValue(elem, arena, seen))
		}
		return arr
	case *Object:
		if c, ok := seen[v]; ok {
			return c
		}
		obj := arena.NewObject()
		seen[v] = obj
		obj.Entries = make([]Entry, 0, len(v.Entries))
		for _, entry := range v.Entries {
			obj.Entries = append(obj.Entries, Entry{
				Key:   copyValue(entry.Key, arena, seen),
				Value: copyValue(entry.Value, arena, seen),
			})
		}
		return obj
	case *Closure:
		if c, ok := seen[v]; ok {
			return c
		}
		if v.disposed {
			return v
		}
		c := arena.NewClosure(&Closure{Literal: v.Literal, File: v.File})
		seen[v] = c
		c.Env = v.Env.copyCaptured(arena, seen)
		return c
	}
	return v
}

package evaluator

import (
	"sort"
	"strings"
)

// CollectionsBuiltins returns the functions of the collections module
func CollectionsBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"length":   {Name: "length", Fn: builtinLength},
		"keys":     {Name: "keys", Fn: builtinKeys},
		"values":   {Name: "values", Fn: builtinValues},
		"map":      {Name: "map", Fn: builtinMap},
		"map_keys": {Name: "map_keys", Fn: builtinMapKeys},
		"filter":   {Name: "filter", Fn: filterBuiltin(true)},
		"exclude":  {Name: "exclude", Fn: filterBuiltin(false)},
		"sort":     {Name: "sort", Fn: builtinSort},
		"reverse":  {Name: "reverse", Fn: builtinReverse},
		"take":     {Name: "take", Fn: builtinTake},
		"drop":     {Name: "drop", Fn: builtinDrop},
		"push":     {Name: "push", Fn: builtinPush},
		"pop":      {Name: "pop", Fn: builtinPop},
	}
}

func functionArg(args []Value, i int) (Value, error) {
	switch args[i].(type) {
	case *Builtin, *Closure:
		return args[i], nil
	}
	return nil, ArgError(i, "expected function, got %s", TypeName(args[i]))
}

func builtinLength(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *Array:
		return integer(int64(v.Len())), nil
	case *Object:
		return integer(int64(v.Len())), nil
	case *String:
		return integer(int64(len(v.Value))), nil
	}
	return nil, ArgError(0, "expected array, object or string, got %s", TypeName(args[0]))
}

func builtinKeys(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	obj, err := objectArg(args, 0)
	if err != nil {
		return nil, err
	}
	arr := env.Arena().NewArray(obj.Len())
	for _, entry := range obj.Entries {
		arr.Push(entry.Key)
	}
	return arr, nil
}

func builtinValues(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	obj, err := objectArg(args, 0)
	if err != nil {
		return nil, err
	}
	arr := env.Arena().NewArray(obj.Len())
	for _, entry := range obj.Entries {
		arr.Push(entry.Value)
	}
	return arr, nil
}

// map(src, fn(value, key)) maps the values of an array or object.
func builtinMap(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return nil, err
	}
	fn, err := functionArg(args, 1)
	if err != nil {
		return nil, err
	}
	switch src := args[0].(type) {
	case *Array:
		dest := env.Arena().NewArray(src.Len())
		for i, v := range src.Elements {
			mapped, err := e.Call(fn, []Value{v, integer(int64(i))}, env)
			if err != nil {
				return nil, err
			}
			dest.Push(mapped)
		}
		return dest, nil
	case *Object:
		dest := env.Arena().NewObject()
		for _, entry := range src.Entries {
			mapped, err := e.Call(fn, []Value{entry.Value, entry.Key}, env)
			if err != nil {
				return nil, err
			}
			dest.Put(entry.Key, mapped)
		}
		return dest, nil
	}
	return nil, ArgError(0, "expected array or object, got %s", TypeName(args[0]))
}

func builtinMapKeys(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return nil, err
	}
	src, err := objectArg(args, 0)
	if err != nil {
		return nil, err
	}
	fn, err := functionArg(args, 1)
	if err != nil {
		return nil, err
	}
	dest := env.Arena().NewObject()
	for _, entry := range src.Entries {
		key, err := e.Call(fn, []Value{entry.Key}, env)
		if err != nil {
			return nil, err
		}
		dest.Put(key, entry.Value)
	}
	return dest, nil
}

// filterBuiltin keeps the elements for which the predicate's truthiness
// equals keep.
func filterBuiltin(keep bool) NativeFunction {
	return func(e *Evaluator, env *Environment, args []Value) (Value, error) {
		if err := checkArgs(args, 2, 2); err != nil {
			return nil, err
		}
		fn, err := functionArg(args, 1)
		if err != nil {
			return nil, err
		}
		switch src := args[0].(type) {
		case *Array:
			dest := env.Arena().NewArray(0)
			for i, v := range src.Elements {
				include, err := e.Call(fn, []Value{v, integer(int64(i))}, env)
				if err != nil {
					return nil, err
				}
				if IsTruthy(include) == keep {
					dest.Push(v)
				}
			}
			return dest, nil
		case *Object:
			dest := env.Arena().NewObject()
			for _, entry := range src.Entries {
				include, err := e.Call(fn, []Value{entry.Value, entry.Key}, env)
				if err != nil {
					return nil, err
				}
				if IsTruthy(include) == keep {
					dest.Put(entry.Key, entry.Value)
				}
			}
			return dest, nil
		}
		return nil, ArgError(0, "expected array or object, got %s", TypeName(args[0]))
	}
}

var typeOrder = map[ValueType]int{
	NIL_VALUE:      0,
	BOOLEAN_VALUE:  1,
	INTEGER_VALUE:  2,
	FLOAT_VALUE:    2,
	TIME_VALUE:     3,
	SYMBOL_VALUE:   4,
	STRING_VALUE:   5,
	ARRAY_VALUE:    6,
	OBJECT_VALUE:   7,
	FUNCTION_VALUE: 8,
	UNIT_VALUE:     9,
}

// sortCompare orders values of different types by type, then by value.
func sortCompare(a, b Value) int {
	ta, tb := typeOrder[a.Type()], typeOrder[b.Type()]
	if ta != tb {
		return ta - tb
	}
	switch a := a.(type) {
	case *Boolean:
		bb := b.(*Boolean)
		switch {
		case a.Value == bb.Value:
			return 0
		case bb.Value:
			return -1
		}
		return 1
	case *Symbol:
		return strings.Compare(a.Name, b.(*Symbol).Name)
	case *Array:
		bb := b.(*Array)
		for i := 0; i < len(a.Elements) && i < len(bb.Elements); i++ {
			if c := sortCompare(a.Elements[i], bb.Elements[i]); c != 0 {
				return c
			}
		}
		return len(a.Elements) - len(bb.Elements)
	}
	if c, err := Compare(a, b); err == nil {
		return c
	}
	return 0
}

// sort(array, key_fn?) returns a sorted copy. The sort is stable.
func builtinSort(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	src, err := arrayArg(args, 0)
	if err != nil {
		return nil, err
	}
	keys := src.Elements
	if len(args) > 1 && !isNil(args[1]) {
		fn, err := functionArg(args, 1)
		if err != nil {
			return nil, err
		}
		keys = make([]Value, len(src.Elements))
		for i, v := range src.Elements {
			if keys[i], err = e.Call(fn, []Value{v}, env); err != nil {
				return nil, err
			}
		}
	}
	order := make([]int, len(src.Elements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sortCompare(keys[order[i]], keys[order[j]]) < 0
	})
	dest := env.Arena().NewArray(len(order))
	for _, i := range order {
		dest.Push(src.Elements[i])
	}
	return dest, nil
}

func builtinReverse(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	switch src := args[0].(type) {
	case *Array:
		dest := env.Arena().NewArray(src.Len())
		for i := src.Len() - 1; i >= 0; i-- {
			dest.Push(src.Elements[i])
		}
		return dest, nil
	case *String:
		b := []byte(src.Value)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return str(string(b)), nil
	}
	return nil, ArgError(0, "expected array or string, got %s", TypeName(args[0]))
}

func sliceBounds(args []Value) (*Array, int, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return nil, 0, err
	}
	src, err := arrayArg(args, 0)
	if err != nil {
		return nil, 0, err
	}
	n, err := intArg(args, 1)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		n = 0
	}
	if n > int64(src.Len()) {
		n = int64(src.Len())
	}
	return src, int(n), nil
}

// take(array, n) returns the first n elements.
func builtinTake(e *Evaluator, env *Environment, args []Value) (Value, error) {
	src, n, err := sliceBounds(args)
	if err != nil {
		return nil, err
	}
	return env.Arena().ArrayOf(src.Elements[:n]...), nil
}

// drop(array, n) returns all but the first n elements.
func builtinDrop(e *Evaluator, env *Environment, args []Value) (Value, error) {
	src, n, err := sliceBounds(args)
	if err != nil {
		return nil, err
	}
	return env.Arena().ArrayOf(src.Elements[n:]...), nil
}

// push(array, value) appends in place and returns the array.
func builtinPush(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return nil, err
	}
	arr, err := arrayArg(args, 0)
	if err != nil {
		return nil, err
	}
	arr.Push(args[1])
	return arr, nil
}

// pop(array) removes and returns the last element, nil when empty.
func builtinPop(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	arr, err := arrayArg(args, 0)
	if err != nil {
		return nil, err
	}
	if arr.Len() == 0 {
		return NIL, nil
	}
	return arr.Pop(), nil
}

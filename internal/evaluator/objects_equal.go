package evaluator

import (
	"strings"

	"github.com/nielssp/plet/internal/diagnostics"
)

// Equals compares structurally. Ints and floats compare by numeric value;
// symbols and functions by identity.
func Equals(a, b Value) bool {
	switch a := a.(type) {
	case *Nil:
		return isNil(b)
	case *Unit:
		_, ok := b.(*Unit)
		return ok
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value
	case *Integer:
		switch b := b.(type) {
		case *Integer:
			return a.Value == b.Value
		case *Float:
			return float64(a.Value) == b.Value
		}
		return false
	case *Float:
		switch b := b.(type) {
		case *Integer:
			return a.Value == float64(b.Value)
		case *Float:
			return a.Value == b.Value
		}
		return false
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value == bs.Value
	case *Symbol:
		return Value(a) == b
	case *Time:
		bt, ok := b.(*Time)
		return ok && a.Value == bt.Value
	case *Array:
		ba, ok := b.(*Array)
		if !ok {
			return false
		}
		if a == ba {
			return true
		}
		if len(a.Elements) != len(ba.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equals(a.Elements[i], ba.Elements[i]) {
				return false
			}
		}
		return true
	case *Object:
		bo, ok := b.(*Object)
		if !ok {
			return false
		}
		if a == bo {
			return true
		}
		if len(a.Entries) != len(bo.Entries) {
			return false
		}
		for _, entry := range a.Entries {
			v, ok := bo.Get(entry.Key)
			if !ok || !Equals(entry.Value, v) {
				return false
			}
		}
		return true
	case *Builtin, *Closure:
		return Value(a) == b
	}
	return false
}

// Compare orders numbers, strings and times. Mixed numbers compare as
// floats.
func Compare(a, b Value) (int, *Error) {
	switch a := a.(type) {
	case *Integer:
		switch b := b.(type) {
		case *Integer:
			return compareInts(a.Value, b.Value), nil
		case *Float:
			return compareFloats(float64(a.Value), b.Value), nil
		}
	case *Float:
		switch b := b.(type) {
		case *Integer:
			return compareFloats(a.Value, float64(b.Value)), nil
		case *Float:
			return compareFloats(a.Value, b.Value), nil
		}
	case *String:
		if b, ok := b.(*String); ok {
			return strings.Compare(a.Value, b.Value), nil
		}
	case *Time:
		if b, ok := b.(*Time); ok {
			return compareInts(a.Value, b.Value), nil
		}
	}
	return 0, newError(diagnostics.ErrR002, "cannot compare %s with %s", TypeName(a), TypeName(b))
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

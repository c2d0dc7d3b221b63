package evaluator

import (
	"strconv"
	"strings"
	"time"
)

// Nil
type Nil struct{}

func (n *Nil) Type() ValueType { return NIL_VALUE }
func (n *Nil) Inspect() string { return "nil" }

// Unit is the value of assignments and exports. It displays as nothing.
type Unit struct{}

func (u *Unit) Type() ValueType { return UNIT_VALUE }
func (u *Unit) Inspect() string { return "()" }

// Boolean
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BOOLEAN_VALUE }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

// Integer
type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType { return INTEGER_VALUE }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

// Float
type Float struct {
	Value float64
}

func (f *Float) Type() ValueType { return FLOAT_VALUE }

// Inspect always includes a fraction or exponent so the value reads back
// as a float.
func (f *Float) Inspect() string {
	s := formatFloat(f.Value)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String is an immutable byte string.
type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_VALUE }
func (s *String) Inspect() string { return QuoteString(s.Value) }

// Symbol is an interned name. Two symbols are equal only if they are the
// same pointer.
type Symbol struct {
	Name string
}

func (s *Symbol) Type() ValueType { return SYMBOL_VALUE }
func (s *Symbol) Inspect() string { return QuoteString(s.Name) }

// Time is a point in time with second precision.
type Time struct {
	Value int64
}

const TimeLayout = "2006-01-02T15:04:05-0700"

func (t *Time) Type() ValueType { return TIME_VALUE }
func (t *Time) Inspect() string { return QuoteString(t.String()) }
func (t *Time) Time() time.Time { return time.Unix(t.Value, 0) }
func (t *Time) String() string  { return t.Time().Format(TimeLayout) }

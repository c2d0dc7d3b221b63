package evaluator

import (
	"fmt"
	"strings"
)

// Display converts v to the text a template block outputs for it.
func Display(v Value) string {
	switch v := v.(type) {
	case *String:
		return v.Value
	case *Integer:
		return v.Inspect()
	case *Float:
		return formatFloat(v.Value)
	case *Boolean:
		if v.Value {
			return "true"
		}
		return ""
	case *Symbol:
		return v.Name
	case *Time:
		return v.String()
	}
	return ""
}

// ToString is the conversion done by string(): collections use object
// notation, everything else the display text.
func ToString(v Value) string {
	switch v.(type) {
	case *Array, *Object:
		return v.Inspect()
	}
	return Display(v)
}

// QuoteString writes s as a single-quoted string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// IsTruthy: nil, unit, false, zero, and empty strings, arrays and objects
// are false.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case nil, *Nil, *Unit:
		return false
	case *Boolean:
		return v.Value
	case *Integer:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *Array:
		return len(v.Elements) > 0
	case *Object:
		return len(v.Entries) > 0
	}
	return true
}

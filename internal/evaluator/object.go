package evaluator

type ValueType string

const (
	NIL_VALUE      = "nil"
	BOOLEAN_VALUE  = "boolean"
	INTEGER_VALUE  = "int"
	FLOAT_VALUE    = "float"
	STRING_VALUE   = "string"
	SYMBOL_VALUE   = "symbol"
	ARRAY_VALUE    = "array"
	OBJECT_VALUE   = "object"
	FUNCTION_VALUE = "function"
	TIME_VALUE     = "time"
	UNIT_VALUE     = "unit"
)

// Value is any runtime value.
type Value interface {
	Type() ValueType
	// Inspect renders the value in object notation where possible.
	Inspect() string
}

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	UNIT  = &Unit{}
)

func nativeBoolToBoolean(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// TypeName is the name returned by type(). Booleans report "true" or
// "false".
func TypeName(v Value) string {
	if b, ok := v.(*Boolean); ok {
		if b.Value {
			return "true"
		}
		return "false"
	}
	return string(v.Type())
}

func isNil(v Value) bool {
	_, ok := v.(*Nil)
	return ok || v == nil
}

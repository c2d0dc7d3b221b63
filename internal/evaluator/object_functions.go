package evaluator

import (
	"github.com/nielssp/plet/internal/ast"
)

// NativeFunction implements a builtin. A returned error becomes an error
// result positioned at the call.
type NativeFunction func(e *Evaluator, env *Environment, args []Value) (Value, error)

type Builtin struct {
	Name string
	Fn   NativeFunction
}

func (b *Builtin) Type() ValueType { return FUNCTION_VALUE }
func (b *Builtin) Inspect() string { return "<function " + b.Name + ">" }

// Closure is a function literal together with its captured scope.
type Closure struct {
	Literal *ast.FunctionLiteral
	Env     *Environment
	// File is the source file the literal was parsed from.
	File     string
	disposed bool
}

func (c *Closure) Type() ValueType { return FUNCTION_VALUE }
func (c *Closure) Inspect() string { return "<function>" }

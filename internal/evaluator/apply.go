package evaluator

import (
	"errors"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

// apply calls fn with args. Errors are positioned at node.
func (e *Evaluator) apply(node ast.Node, fn Value, args []Value, env *Environment) Result {
	if err := e.enterCall(node); err != nil {
		e.leaveCall()
		return errorResult(err)
	}
	defer e.leaveCall()
	switch fn := fn.(type) {
	case *Builtin:
		prev := e.callSite
		e.callSite = node
		v, err := fn.Fn(e, env, args)
		e.callSite = prev
		if err != nil {
			return errorResult(nativeError(fn.Name, err).locate(node))
		}
		if v == nil {
			v = NIL
		}
		return valueResult(v)
	case *Closure:
		return e.callClosure(node, fn, args, env)
	}
	return errorResult(newError(diagnostics.ErrR002, "%s is not a function", TypeName(fn)).locate(node))
}

func nativeError(name string, err error) *Error {
	var runtimeErr *Error
	if errors.As(err, &runtimeErr) {
		return runtimeErr
	}
	return newError(diagnostics.ErrR008, "%s: %v", name, err)
}

func (e *Evaluator) callClosure(node ast.Node, c *Closure, args []Value, env *Environment) Result {
	if c.disposed {
		return errorResult(newError(diagnostics.ErrR002, "function used after its scope ended").locate(node))
	}
	params := c.Literal.Parameters
	if len(args) > len(params) {
		return errorResult(newError(diagnostics.ErrR005, "too many arguments: expected %d, got %d", len(params), len(args)).locate(node))
	}
	scope := NewEnclosedEnvironment(c.Env)
	scope.arena = env.arena
	scope.loopDepth = 0
	for i, name := range params {
		if i < len(args) {
			scope.Set(name, args[i])
		} else {
			scope.Set(name, NIL)
		}
	}
	r := e.Interpret(c.Literal.Body, scope)
	switch r.Kind {
	case ResultReturn:
		r.Kind = ResultValue
	case ResultBreak, ResultContinue:
		return errorResult(newError(diagnostics.ErrR006, "%s outside of loop", r.Kind).locate(node))
	}
	if r.Value == nil {
		r.Value = NIL
	}
	return r
}

// Call invokes fn from a builtin. Arguments beyond the parameters of a
// closure are dropped, so callbacks may ignore the index or key. Errors
// are returned as *Error.
func (e *Evaluator) Call(fn Value, args []Value, env *Environment) (Value, error) {
	if c, ok := fn.(*Closure); ok && len(args) > len(c.Literal.Parameters) {
		args = args[:len(c.Literal.Parameters)]
	}
	r := e.apply(nil, fn, args, env)
	if r.Kind == ResultError {
		return nil, r.Err
	}
	return r.Value, nil
}

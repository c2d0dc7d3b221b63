package evaluator

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *Environment) Result {
	if v, ok := env.Get(node.Value); ok {
		return valueResult(v)
	}
	return errorResult(newError(diagnostics.ErrR001, "undefined name: %s", node.Value).locate(node))
}

func (e *Evaluator) evalListLiteral(node *ast.ListLiteral, env *Environment) Result {
	arr := env.Arena().NewArray(len(node.Elements))
	for _, elem := range node.Elements {
		v, r, ok := e.eval(elem, env)
		if !ok {
			return r
		}
		arr.Push(v)
	}
	return valueResult(arr)
}

func (e *Evaluator) evalObjectLiteral(node *ast.ObjectLiteral, env *Environment) Result {
	obj := env.Arena().NewObject()
	for _, prop := range node.Properties {
		var key Value
		if ident, ok := prop.Key.(*ast.Identifier); ok {
			key = env.Intern(ident.Value)
		} else {
			k, r, ok := e.eval(prop.Key, env)
			if !ok {
				return r
			}
			key = k
		}
		v, r, ok := e.eval(prop.Value, env)
		if !ok {
			return r
		}
		obj.Put(key, v)
	}
	return valueResult(obj)
}

// evalFunctionLiteral snapshots the free variables that are bound now.
// Names bound later (the closure itself, for recursion) are read through
// env when the closure runs but never assigned through it.
func (e *Evaluator) evalFunctionLiteral(node *ast.FunctionLiteral, env *Environment) Result {
	captured := NewEnclosedEnvironment(env)
	captured.loopDepth = 0
	captured.sealed = true
	for _, name := range node.FreeVariables {
		if v, ok := env.Get(name); ok {
			captured.Set(name, v)
		}
	}
	file := node.GetToken().File
	return valueResult(env.Arena().NewClosure(&Closure{Literal: node, Env: captured, File: file}))
}

func (e *Evaluator) evalArguments(nodes []ast.Node, env *Environment) ([]Value, Result, bool) {
	args := make([]Value, 0, len(nodes))
	for _, node := range nodes {
		v, r, ok := e.eval(node, env)
		if !ok {
			return nil, r, false
		}
		args = append(args, v)
	}
	return args, Result{}, true
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression, env *Environment) Result {
	callee, r, ok := e.eval(node.Function, env)
	if !ok {
		return r
	}
	if _, suppressed := node.Function.(*ast.SuppressExpression); suppressed && isNil(callee) {
		return valueResult(NIL)
	}
	args, r, ok := e.evalArguments(node.Arguments, env)
	if !ok {
		return r
	}
	return e.apply(node, callee, args, env)
}

// evalPipelineExpression evaluates "x | f(a)" as "f(x, a)".
func (e *Evaluator) evalPipelineExpression(node *ast.PipelineExpression, env *Environment) Result {
	left, r, ok := e.eval(node.Left, env)
	if !ok {
		return r
	}
	callee, r, ok := e.eval(node.Function, env)
	if !ok {
		return r
	}
	rest, r, ok := e.evalArguments(node.Arguments, env)
	if !ok {
		return r
	}
	args := append([]Value{left}, rest...)
	return e.apply(node, callee, args, env)
}

func (e *Evaluator) evalSubscriptExpression(node *ast.SubscriptExpression, env *Environment) Result {
	container, r, ok := e.eval(node.Left, env)
	if !ok {
		return r
	}
	index, r, ok := e.eval(node.Index, env)
	if !ok {
		return r
	}
	v, err := Subscript(container, index)
	if err != nil {
		return errorResult(err.locate(node))
	}
	return valueResult(v)
}

// Subscript indexes an array, object or string.
func Subscript(container, index Value) (Value, *Error) {
	switch c := container.(type) {
	case *Array:
		i, ok := index.(*Integer)
		if !ok {
			return nil, newError(diagnostics.ErrR002, "array index must be an int, %s given", TypeName(index))
		}
		idx, ok := c.index(i.Value)
		if !ok {
			return nil, newError(diagnostics.ErrR004, "array index out of range: %d", i.Value)
		}
		return c.Elements[idx], nil
	case *Object:
		if v, ok := c.Get(index); ok {
			return v, nil
		}
		return nil, newError(diagnostics.ErrR004, "undefined key: %s", index.Inspect())
	case *String:
		i, ok := index.(*Integer)
		if !ok {
			return nil, newError(diagnostics.ErrR002, "string index must be an int, %s given", TypeName(index))
		}
		idx := i.Value
		if idx < 0 {
			idx += int64(len(c.Value))
		}
		if idx < 0 || idx >= int64(len(c.Value)) {
			return nil, newError(diagnostics.ErrR004, "string index out of range: %d", i.Value)
		}
		return &String{Value: c.Value[idx : idx+1]}, nil
	}
	return nil, newError(diagnostics.ErrR002, "cannot subscript %s", TypeName(container))
}

func (e *Evaluator) evalDotExpression(node *ast.DotExpression, env *Environment) Result {
	container, r, ok := e.eval(node.Left, env)
	if !ok {
		return r
	}
	obj, ok := container.(*Object)
	if !ok {
		return errorResult(newError(diagnostics.ErrR002, "cannot look up .%s on %s", node.Name, TypeName(container)).locate(node))
	}
	if v, ok := obj.GetName(env.Intern(node.Name)); ok {
		return valueResult(v)
	}
	return errorResult(newError(diagnostics.ErrR004, "undefined key: %s", node.Name).locate(node))
}

func (e *Evaluator) evalSuppressExpression(node *ast.SuppressExpression, env *Environment) Result {
	r := e.Interpret(node.Expression, env)
	if r.Kind == ResultError {
		return valueResult(NIL)
	}
	return r
}

func (e *Evaluator) evalAssignExpression(node *ast.AssignExpression, env *Environment) Result {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		value, r, ok := e.eval(node.Value, env)
		if !ok {
			return r
		}
		if node.Operator != ast.OpNone {
			old, ok := env.Get(target.Value)
			if !ok {
				return errorResult(newError(diagnostics.ErrR001, "undefined name: %s", target.Value).locate(target))
			}
			var err *Error
			if value, err = e.binaryOp(node.Operator, old, value, env); err != nil {
				return errorResult(err.locate(node))
			}
		}
		env.Assign(target.Value, value)
	case *ast.SubscriptExpression:
		container, r, ok := e.eval(target.Left, env)
		if !ok {
			return r
		}
		index, r, ok := e.eval(target.Index, env)
		if !ok {
			return r
		}
		if err := e.assignInto(node, container, index, env); err != nil {
			return *err
		}
	case *ast.DotExpression:
		container, r, ok := e.eval(target.Left, env)
		if !ok {
			return r
		}
		key := Value(env.Intern(target.Name))
		if obj, ok := container.(*Object); ok {
			if _, found := obj.Get(key); !found {
				if _, found := obj.Get(&String{Value: target.Name}); found {
					key = &String{Value: target.Name}
				}
			}
		}
		if err := e.assignInto(node, container, key, env); err != nil {
			return *err
		}
	default:
		return errorResult(newError(diagnostics.ErrR002, "invalid assignment target").locate(node))
	}
	return valueResult(UNIT)
}

// assignInto stores the value of node at container[index], applying the
// compound operator first.
func (e *Evaluator) assignInto(node *ast.AssignExpression, container, index Value, env *Environment) *Result {
	fail := func(err *Error) *Result {
		r := errorResult(err.locate(node))
		return &r
	}
	var old Value
	if node.Operator != ast.OpNone {
		v, err := Subscript(container, index)
		if err != nil {
			return fail(err)
		}
		old = v
	}
	value, r, ok := e.eval(node.Value, env)
	if !ok {
		return &r
	}
	if old != nil {
		var err *Error
		if value, err = e.binaryOp(node.Operator, old, value, env); err != nil {
			return fail(err)
		}
	}
	switch c := container.(type) {
	case *Array:
		i, ok := index.(*Integer)
		if !ok {
			return fail(newError(diagnostics.ErrR002, "array index must be an int, %s given", TypeName(index)))
		}
		idx, ok := c.index(i.Value)
		if !ok {
			return fail(newError(diagnostics.ErrR004, "array index out of range: %d", i.Value))
		}
		c.Elements[idx] = value
	case *Object:
		c.Put(index, value)
	default:
		return fail(newError(diagnostics.ErrR002, "cannot assign into %s", TypeName(container)))
	}
	return nil
}

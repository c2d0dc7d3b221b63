package evaluator

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

func (e *Evaluator) evalPrefixExpression(node *ast.PrefixExpression, env *Environment) Result {
	right, r, ok := e.eval(node.Right, env)
	if !ok {
		return r
	}
	switch node.Operator {
	case ast.OpNot:
		return valueResult(nativeBoolToBoolean(!IsTruthy(right)))
	case ast.OpNeg:
		switch v := right.(type) {
		case *Integer:
			return valueResult(&Integer{Value: -v.Value})
		case *Float:
			return valueResult(&Float{Value: -v.Value})
		}
		return errorResult(newError(diagnostics.ErrR002, "cannot negate %s", TypeName(right)).locate(node))
	}
	return errorResult(newError(diagnostics.ErrR002, "unknown prefix operator %s", node.Operator).locate(node))
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression, env *Environment) Result {
	left, r, ok := e.eval(node.Left, env)
	if !ok {
		return r
	}
	switch node.Operator {
	case ast.OpAnd:
		if !IsTruthy(left) {
			return valueResult(left)
		}
		return e.Interpret(node.Right, env)
	case ast.OpOr:
		if IsTruthy(left) {
			return valueResult(left)
		}
		return e.Interpret(node.Right, env)
	}
	right, r, ok := e.eval(node.Right, env)
	if !ok {
		return r
	}
	v, err := e.binaryOp(node.Operator, left, right, env)
	if err != nil {
		return errorResult(err.locate(node))
	}
	return valueResult(v)
}

// binaryOp applies a non short-circuiting operator.
func (e *Evaluator) binaryOp(op ast.Operator, left, right Value, env *Environment) (Value, *Error) {
	switch op {
	case ast.OpEq:
		return nativeBoolToBoolean(Equals(left, right)), nil
	case ast.OpNeq:
		return nativeBoolToBoolean(!Equals(left, right)), nil
	case ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		c, err := Compare(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OpLt:
			return nativeBoolToBoolean(c < 0), nil
		case ast.OpLeq:
			return nativeBoolToBoolean(c <= 0), nil
		case ast.OpGt:
			return nativeBoolToBoolean(c > 0), nil
		}
		return nativeBoolToBoolean(c >= 0), nil
	case ast.OpAdd:
		return addValues(left, right, env)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arithmetic(op, left, right)
	}
	return nil, newError(diagnostics.ErrR002, "unknown operator %s", op)
}

// addValues concatenates strings and arrays, merges objects, adds numbers
// and shifts times by seconds.
func addValues(left, right Value, env *Environment) (Value, *Error) {
	_, ls := left.(*String)
	_, rs := right.(*String)
	if ls || rs {
		return &String{Value: Display(left) + Display(right)}, nil
	}
	switch l := left.(type) {
	case *Array:
		if r, ok := right.(*Array); ok {
			arr := env.Arena().NewArray(len(l.Elements) + len(r.Elements))
			arr.Elements = append(arr.Elements, l.Elements...)
			arr.Elements = append(arr.Elements, r.Elements...)
			return arr, nil
		}
	case *Object:
		if r, ok := right.(*Object); ok {
			obj := env.Arena().NewObject()
			obj.Entries = make([]Entry, 0, len(l.Entries)+len(r.Entries))
			obj.Entries = append(obj.Entries, l.Entries...)
			for _, entry := range r.Entries {
				obj.Put(entry.Key, entry.Value)
			}
			return obj, nil
		}
	case *Time:
		if r, ok := right.(*Integer); ok {
			return &Time{Value: l.Value + r.Value}, nil
		}
	}
	return arithmetic(ast.OpAdd, left, right)
}

func arithmetic(op ast.Operator, left, right Value) (Value, *Error) {
	if l, ok := left.(*Time); ok {
		switch r := right.(type) {
		case *Time:
			if op == ast.OpSub {
				return &Integer{Value: l.Value - r.Value}, nil
			}
		case *Integer:
			if op == ast.OpSub {
				return &Time{Value: l.Value - r.Value}, nil
			}
		}
	}
	li, lInt := left.(*Integer)
	ri, rInt := right.(*Integer)
	if lInt && rInt {
		a, b := li.Value, ri.Value
		switch op {
		case ast.OpAdd:
			return &Integer{Value: a + b}, nil
		case ast.OpSub:
			return &Integer{Value: a - b}, nil
		case ast.OpMul:
			return &Integer{Value: a * b}, nil
		case ast.OpDiv:
			if b == 0 {
				return nil, newError(diagnostics.ErrR003, "division by zero")
			}
			return &Integer{Value: a / b}, nil
		case ast.OpMod:
			if b == 0 {
				return nil, newError(diagnostics.ErrR003, "division by zero")
			}
			return &Integer{Value: a % b}, nil
		}
	}
	a, aok := toFloat(left)
	b, bok := toFloat(right)
	if !aok || !bok {
		return nil, newError(diagnostics.ErrR002, "invalid operands for %s: %s and %s", op, TypeName(left), TypeName(right))
	}
	switch op {
	case ast.OpAdd:
		return &Float{Value: a + b}, nil
	case ast.OpSub:
		return &Float{Value: a - b}, nil
	case ast.OpMul:
		return &Float{Value: a * b}, nil
	case ast.OpDiv:
		if b == 0 {
			return nil, newError(diagnostics.ErrR003, "division by zero")
		}
		return &Float{Value: a / b}, nil
	}
	return nil, newError(diagnostics.ErrR002, "%s requires int operands", op)
}

func toFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case *Integer:
		return float64(v.Value), true
	case *Float:
		return v.Value, true
	}
	return 0, false
}

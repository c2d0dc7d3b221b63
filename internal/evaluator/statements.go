package evaluator

import (
	"strings"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

// evalBlock concatenates the display text of a template block's statements.
// A do block yields the value of its last statement.
func (e *Evaluator) evalBlock(block *ast.Block, env *Environment) Result {
	if !block.Template {
		result := valueResult(NIL)
		for _, stmt := range block.Statements {
			result = e.Interpret(stmt, env)
			if result.Kind != ResultValue {
				return result
			}
		}
		return result
	}
	var sb strings.Builder
	for _, stmt := range block.Statements {
		if text, ok := stmt.(*ast.StringLiteral); ok && text.Text {
			sb.WriteString(text.Value)
			continue
		}
		r := e.Interpret(stmt, env)
		switch r.Kind {
		case ResultValue:
			sb.WriteString(Display(r.Value))
		case ResultBreak, ResultContinue:
			sb.WriteString(Display(r.Value))
			r.Value = &String{Value: sb.String()}
			return r
		default:
			return r
		}
	}
	return valueResult(&String{Value: sb.String()})
}

func (e *Evaluator) evalIfExpression(node *ast.IfExpression, env *Environment) Result {
	cond, r, ok := e.eval(node.Condition, env)
	if !ok {
		return r
	}
	if IsTruthy(cond) {
		return e.Interpret(node.Consequence, env)
	}
	if node.Alternative != nil {
		return e.Interpret(node.Alternative, env)
	}
	return valueResult(NIL)
}

// iterate calls fn for each key/value pair of an array, object or string.
// It stops when fn returns false.
func iterate(collection Value, fn func(key, value Value) bool) *Error {
	switch c := collection.(type) {
	case *Array:
		for i := 0; i < len(c.Elements); i++ {
			if !fn(&Integer{Value: int64(i)}, c.Elements[i]) {
				return nil
			}
		}
	case *Object:
		for i := 0; i < len(c.Entries); i++ {
			if !fn(c.Entries[i].Key, c.Entries[i].Value) {
				return nil
			}
		}
	case *String:
		for i := 0; i < len(c.Value); i++ {
			if !fn(&Integer{Value: int64(i)}, &String{Value: c.Value[i : i+1]}) {
				return nil
			}
		}
	case *Nil:
	default:
		return newError(diagnostics.ErrR002, "%s is not iterable", TypeName(collection))
	}
	return nil
}

func (e *Evaluator) evalForExpression(node *ast.ForExpression, env *Environment) Result {
	collection, r, ok := e.eval(node.Collection, env)
	if !ok {
		return r
	}
	var sb strings.Builder
	var result *Result
	empty := true
	err := iterate(collection, func(key, value Value) bool {
		empty = false
		scope := NewEnclosedEnvironment(env)
		scope.iteration = true
		scope.loopDepth++
		if node.Key != "" {
			scope.Set(node.Key, key)
		}
		scope.Set(node.Value, value)
		r := e.Interpret(node.Body, scope)
		switch r.Kind {
		case ResultValue:
			sb.WriteString(Display(r.Value))
			return true
		case ResultBreak, ResultContinue:
			sb.WriteString(Display(r.Value))
			if r.Levels > 1 {
				r.Levels--
				r.Value = &String{Value: sb.String()}
				result = &r
				return false
			}
			return r.Kind == ResultContinue
		}
		result = &r
		return false
	})
	if err != nil {
		return errorResult(err.locate(node.Collection))
	}
	if result != nil {
		return *result
	}
	if empty && node.Alternative != nil {
		return e.Interpret(node.Alternative, env)
	}
	return valueResult(&String{Value: sb.String()})
}

func (e *Evaluator) evalSwitchExpression(node *ast.SwitchExpression, env *Environment) Result {
	subject, r, ok := e.eval(node.Subject, env)
	if !ok {
		return r
	}
	for _, c := range node.Cases {
		for _, valueNode := range c.Values {
			value, r, ok := e.eval(valueNode, env)
			if !ok {
				return r
			}
			if Equals(subject, value) {
				return e.Interpret(c.Body, env)
			}
		}
	}
	if node.Default != nil {
		return e.Interpret(node.Default, env)
	}
	return valueResult(NIL)
}

func (e *Evaluator) evalExportStatement(node *ast.ExportStatement, env *Environment) Result {
	if node.Value != nil {
		value, r, ok := e.eval(node.Value, env)
		if !ok {
			return r
		}
		env.Assign(node.Name, value)
	} else if _, ok := env.Get(node.Name); !ok {
		env.Assign(node.Name, NIL)
	}
	env.Export(node.Name)
	return valueResult(UNIT)
}

func (e *Evaluator) evalReturnStatement(node *ast.ReturnStatement, env *Environment) Result {
	if node.Value == nil {
		return Result{Kind: ResultReturn, Value: NIL}
	}
	value, r, ok := e.eval(node.Value, env)
	if !ok {
		return r
	}
	return Result{Kind: ResultReturn, Value: value}
}

func (e *Evaluator) evalLoopControl(node ast.Node, kind ResultKind, levels int64, env *Environment) Result {
	if levels < 1 || levels > int64(env.loopDepth) {
		if env.loopDepth == 0 {
			return errorResult(newError(diagnostics.ErrR006, "%s outside of loop", kind).locate(node))
		}
		return errorResult(newError(diagnostics.ErrR006, "%s level %d outside of range 1..%d", kind, levels, env.loopDepth).locate(node))
	}
	return Result{Kind: kind, Value: &String{}, Levels: levels}
}

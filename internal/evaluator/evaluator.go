package evaluator

import (
	"context"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
)

// Evaluator interprets Plet syntax trees.
type Evaluator struct {
	// Context for cancellation
	Context context.Context
	// CurrentFile is the module being evaluated, used for error positions
	// of builtins.
	CurrentFile string

	// callDepth tracks nested function calls to prevent stack overflow
	callDepth int
	// callSite is the call expression of the running builtin
	callSite ast.Node
}

func New() *Evaluator {
	return &Evaluator{}
}

// Interpret evaluates node in env.
func (e *Evaluator) Interpret(node ast.Node, env *Environment) Result {
	switch node := node.(type) {
	case *ast.Block:
		return e.evalBlock(node, env)
	case *ast.StringLiteral:
		return valueResult(&String{Value: node.Value})
	case *ast.IntegerLiteral:
		return valueResult(&Integer{Value: node.Value})
	case *ast.FloatLiteral:
		return valueResult(&Float{Value: node.Value})
	case *ast.BooleanLiteral:
		return valueResult(nativeBoolToBoolean(node.Value))
	case *ast.NilLiteral:
		return valueResult(NIL)
	case *ast.Identifier:
		return e.evalIdentifier(node, env)
	case *ast.ListLiteral:
		return e.evalListLiteral(node, env)
	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(node, env)
	case *ast.TupleExpression:
		return errorResult(newError(diagnostics.ErrR002, "unexpected tuple").locate(node))
	case *ast.FunctionLiteral:
		return e.evalFunctionLiteral(node, env)
	case *ast.CallExpression:
		return e.evalCallExpression(node, env)
	case *ast.PipelineExpression:
		return e.evalPipelineExpression(node, env)
	case *ast.SubscriptExpression:
		return e.evalSubscriptExpression(node, env)
	case *ast.DotExpression:
		return e.evalDotExpression(node, env)
	case *ast.PrefixExpression:
		return e.evalPrefixExpression(node, env)
	case *ast.InfixExpression:
		return e.evalInfixExpression(node, env)
	case *ast.SuppressExpression:
		return e.evalSuppressExpression(node, env)
	case *ast.AssignExpression:
		return e.evalAssignExpression(node, env)
	case *ast.IfExpression:
		return e.evalIfExpression(node, env)
	case *ast.ForExpression:
		return e.evalForExpression(node, env)
	case *ast.SwitchExpression:
		return e.evalSwitchExpression(node, env)
	case *ast.ExportStatement:
		return e.evalExportStatement(node, env)
	case *ast.ReturnStatement:
		return e.evalReturnStatement(node, env)
	case *ast.BreakStatement:
		return e.evalLoopControl(node, ResultBreak, node.Levels, env)
	case *ast.ContinueStatement:
		return e.evalLoopControl(node, ResultContinue, node.Levels, env)
	case nil:
		return valueResult(NIL)
	}
	return errorResult(newError(diagnostics.ErrR002, "unsupported node %T", node).locate(node))
}

// Eval interprets node and reduces the result to a value or an error.
// A return result yields its value.
func (e *Evaluator) Eval(node ast.Node, env *Environment) (Value, *Error) {
	r := e.Interpret(node, env)
	switch r.Kind {
	case ResultError:
		return nil, r.Err
	case ResultBreak, ResultContinue:
		return nil, newError(diagnostics.ErrR006, "%s outside of loop", r.Kind).locate(node)
	}
	if r.Value == nil {
		return NIL, nil
	}
	return r.Value, nil
}

// EvalScript evaluates the statements of a script in order and returns the
// value of the last one instead of their concatenated output.
func (e *Evaluator) EvalScript(root ast.Node, env *Environment) (Value, *Error) {
	if block, ok := root.(*ast.Block); ok && block.Template {
		root = &ast.Block{Span: block.Span, Statements: block.Statements}
	}
	return e.Eval(root, env)
}

// eval evaluates an expression operand. ok is false when r must be
// propagated.
func (e *Evaluator) eval(node ast.Node, env *Environment) (Value, Result, bool) {
	r := e.Interpret(node, env)
	if r.Kind != ResultValue {
		return nil, r, false
	}
	return r.Value, r, true
}

func (e *Evaluator) enterCall(node ast.Node) *Error {
	e.callDepth++
	if e.callDepth > config.MaxRecursionDepth {
		return newError(diagnostics.ErrR009, "maximum recursion depth exceeded").locate(node)
	}
	if e.Context != nil {
		select {
		case <-e.Context.Done():
			return newError(diagnostics.ErrR009, "evaluation cancelled: %v", e.Context.Err()).locate(node)
		default:
		}
	}
	return nil
}

func (e *Evaluator) leaveCall() {
	e.callDepth--
}

// Position returns the source position of the running builtin call.
func (e *Evaluator) Position() (file string, line, column int) {
	if e.callSite == nil {
		return e.CurrentFile, 0, 0
	}
	tok := e.callSite.GetToken()
	return tok.File, tok.Line, tok.Column
}

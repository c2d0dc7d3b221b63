package evaluator

import (
	"fmt"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

// Error is a runtime error carried by an error Result.
type Error struct {
	Code    diagnostics.ErrorCode
	Message string
	File    string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return e.Diagnostic().Error()
}

// Diagnostic converts the error for the reporter.
func (e *Error) Diagnostic() *diagnostics.DiagnosticError {
	return &diagnostics.DiagnosticError{
		Code:    e.Code,
		File:    e.File,
		Line:    e.Line,
		Column:  e.Column,
		Message: e.Message,
	}
}

func newError(code diagnostics.ErrorCode, format string, a ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// locate fills in the position of node unless the error already has one.
func (e *Error) locate(node ast.Node) *Error {
	if e.Line > 0 || node == nil {
		return e
	}
	tok := node.GetToken()
	e.File = tok.File
	e.Line = tok.Line
	e.Column = tok.Column
	return e
}

// ArgError reports a bad argument to a builtin. index is zero-based.
func ArgError(index int, format string, a ...interface{}) *Error {
	return newError(diagnostics.ErrR002, "argument %d: %s", index+1, fmt.Sprintf(format, a...))
}

// UserError is raised by error().
func UserError(message string) *Error {
	return &Error{Code: diagnostics.ErrU001, Message: message}
}

type ResultKind int

const (
	ResultValue ResultKind = iota
	ResultReturn
	ResultBreak
	ResultContinue
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "value"
	case ResultReturn:
		return "return"
	case ResultBreak:
		return "break"
	case ResultContinue:
		return "continue"
	case ResultError:
		return "error"
	}
	return "unknown"
}

// Result is the outcome of interpreting a node. Break and continue carry
// the number of loops still to unwind in Levels and the text produced so
// far in Value.
type Result struct {
	Kind   ResultKind
	Value  Value
	Levels int64
	Err    *Error
}

func valueResult(v Value) Result {
	return Result{Kind: ResultValue, Value: v}
}

func errorResult(err *Error) Result {
	return Result{Kind: ResultError, Value: NIL, Err: err}
}

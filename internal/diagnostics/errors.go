package diagnostics

import (
	"fmt"

	"github.com/nielssp/plet/internal/token"
)

type ErrorCode string

// Kind classifies a diagnostic by the stage that raised it.
type Kind int

const (
	KindIO Kind = iota
	KindLexical
	KindSyntax
	KindSemantic
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindUser:
		return "user"
	}
	return "unknown"
}

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // unexpected character
	ErrL002 ErrorCode = "L002" // unterminated string or comment
	ErrL003 ErrorCode = "L003" // invalid escape sequence
	ErrL004 ErrorCode = "L004" // mismatched bracket
	ErrL005 ErrorCode = "L005" // invalid number
	ErrL006 ErrorCode = "L006" // too many errors

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected token missing
	ErrP003 ErrorCode = "P003" // missing end keyword
	ErrP004 ErrorCode = "P004" // invalid assignment target
	ErrP005 ErrorCode = "P005" // invalid parameter list
	ErrP006 ErrorCode = "P006" // expression too complex
	ErrP007 ErrorCode = "P007" // invalid object notation

	// Runtime
	ErrR001 ErrorCode = "R001" // undefined name
	ErrR002 ErrorCode = "R002" // type error
	ErrR003 ErrorCode = "R003" // division by zero
	ErrR004 ErrorCode = "R004" // subscript out of range / missing key
	ErrR005 ErrorCode = "R005" // wrong arity
	ErrR006 ErrorCode = "R006" // control flow outside loop
	ErrR007 ErrorCode = "R007" // module error
	ErrR008 ErrorCode = "R008" // builtin failed
	ErrR009 ErrorCode = "R009" // recursion limit or cancellation

	ErrU001 ErrorCode = "U001" // raised by error()

	ErrIO01 ErrorCode = "IO01"
)

// Kind derives the error kind from the code prefix.
func (c ErrorCode) Kind() Kind {
	if len(c) == 0 {
		return KindSemantic
	}
	switch c[0] {
	case 'L':
		return KindLexical
	case 'P':
		return KindSyntax
	case 'U':
		return KindUser
	case 'I':
		return KindIO
	}
	return KindSemantic
}

type DiagnosticError struct {
	Code    ErrorCode
	File    string
	Line    int
	Column  int
	Message string
	// Snippet is the offending source line, filled in by the reporter when available.
	Snippet string
}

func NewError(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		File:    tok.File,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewIOError wraps a filesystem failure for path.
func NewIOError(path string, err error) *DiagnosticError {
	return &DiagnosticError{Code: ErrIO01, File: path, Message: err.Error()}
}

func (e *DiagnosticError) Kind() Kind {
	return e.Code.Kind()
}

func (e *DiagnosticError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	if loc == "" {
		return fmt.Sprintf("error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: error [%s]: %s", loc, e.Code, e.Message)
}

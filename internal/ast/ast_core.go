package ast

import (
	"github.com/nielssp/plet/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
	GetToken() token.Token
	// EndToken is the last token of the node.
	EndToken() token.Token
}

// Span records the first and last token of a node.
type Span struct {
	Token token.Token
	End   token.Token
}

func (s *Span) TokenLiteral() string { return s.Token.Lexeme }
func (s *Span) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}
func (s *Span) EndToken() token.Token {
	if s.End.Line == 0 {
		return s.Token
	}
	return s.End
}

// SetEnd sets the last token of the node.
func (s *Span) SetEnd(tok token.Token) { s.End = tok }

// Visitor is implemented by AST walkers such as the pretty printer.
type Visitor interface {
	VisitIdentifier(n *Identifier)
	VisitIntegerLiteral(n *IntegerLiteral)
	VisitFloatLiteral(n *FloatLiteral)
	VisitStringLiteral(n *StringLiteral)
	VisitBooleanLiteral(n *BooleanLiteral)
	VisitNilLiteral(n *NilLiteral)
	VisitListLiteral(n *ListLiteral)
	VisitObjectLiteral(n *ObjectLiteral)
	VisitTupleExpression(n *TupleExpression)
	VisitCallExpression(n *CallExpression)
	VisitPipelineExpression(n *PipelineExpression)
	VisitSubscriptExpression(n *SubscriptExpression)
	VisitDotExpression(n *DotExpression)
	VisitPrefixExpression(n *PrefixExpression)
	VisitInfixExpression(n *InfixExpression)
	VisitFunctionLiteral(n *FunctionLiteral)
	VisitSuppressExpression(n *SuppressExpression)
	VisitAssignExpression(n *AssignExpression)
	VisitBlock(n *Block)
	VisitIfExpression(n *IfExpression)
	VisitForExpression(n *ForExpression)
	VisitSwitchExpression(n *SwitchExpression)
	VisitExportStatement(n *ExportStatement)
	VisitReturnStatement(n *ReturnStatement)
	VisitBreakStatement(n *BreakStatement)
	VisitContinueStatement(n *ContinueStatement)
}

// Operator is a prefix or infix operator.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
)

var operatorNames = map[Operator]string{
	OpNone: "",
	OpAdd:  "+",
	OpSub:  "-",
	OpMul:  "*",
	OpDiv:  "/",
	OpMod:  "%",
	OpNeg:  "-",
	OpNot:  "not",
	OpAnd:  "and",
	OpOr:   "or",
	OpEq:   "==",
	OpNeq:  "!=",
	OpLt:   "<",
	OpLeq:  "<=",
	OpGt:   ">",
	OpGeq:  ">=",
}

func (o Operator) String() string {
	return operatorNames[o]
}

// InfixOperators maps operator tokens to infix operators.
var InfixOperators = map[token.TokenType]Operator{
	token.PLUS:     OpAdd,
	token.MINUS:    OpSub,
	token.ASTERISK: OpMul,
	token.SLASH:    OpDiv,
	token.PERCENT:  OpMod,
	token.AND:      OpAnd,
	token.OR:       OpOr,
	token.EQ:       OpEq,
	token.NOT_EQ:   OpNeq,
	token.LT:       OpLt,
	token.LTE:      OpLeq,
	token.GT:       OpGt,
	token.GTE:      OpGeq,
}

// AssignOperators maps assignment tokens to the operator applied before storing.
var AssignOperators = map[token.TokenType]Operator{
	token.ASSIGN:          OpNone,
	token.PLUS_ASSIGN:     OpAdd,
	token.MINUS_ASSIGN:    OpSub,
	token.ASTERISK_ASSIGN: OpMul,
	token.SLASH_ASSIGN:    OpDiv,
}

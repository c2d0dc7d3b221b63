package parser

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/pipeline"
	"github.com/nielssp/plet/internal/token"
)

const (
	_ int = iota
	LOWEST
	ASSIGN   // = += -= *= /=
	ARROW    // =>
	PIPELINE // |
	OR       // or
	AND      // and
	NOT      // not x
	COMPARE  // == != < > <= >=
	SUM      // + -
	PRODUCT  // * / %
	PREFIX   // -x
	POSTFIX  // f(x) a[i] a.b a?
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.ASTERISK_ASSIGN: ASSIGN,
	token.SLASH_ASSIGN:    ASSIGN,
	token.FAT_ARROW:       ARROW,
	token.PIPE:            PIPELINE,
	token.OR:              OR,
	token.AND:             AND,
	token.EQ:              COMPARE,
	token.NOT_EQ:          COMPARE,
	token.LT:              COMPARE,
	token.GT:              COMPARE,
	token.LTE:             COMPARE,
	token.GTE:             COMPARE,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.ASTERISK:        PRODUCT,
	token.SLASH:           PRODUCT,
	token.PERCENT:         PRODUCT,
	token.LPAREN:          POSTFIX,
	token.LBRACKET:        POSTFIX,
	token.DOT:             POSTFIX,
	token.QUESTION:        POSTFIX,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

// TokenSource produces tokens on demand. *lexer.Lexer implements it.
type TokenSource interface {
	NextToken() token.Token
}

// tokenStream buffers tokens so the parser can look ahead without the
// lexer running past what has been consumed.
type tokenStream struct {
	src    TokenSource
	tokens []token.Token
	done   bool
}

func (s *tokenStream) at(i int) token.Token {
	for i >= len(s.tokens) && !s.done {
		tok := s.src.NextToken()
		s.tokens = append(s.tokens, tok)
		if tok.Type == token.EOF {
			s.done = true
		}
	}
	if i < len(s.tokens) {
		return s.tokens[i]
	}
	last := s.tokens[len(s.tokens)-1]
	return token.Token{Type: token.EOF, File: last.File, Line: last.EndLine, Column: last.EndColumn}
}

type Parser struct {
	ctx    *pipeline.PipelineContext
	stream *tokenStream

	pos      int
	curToken token.Token
	// ignoreLF is set inside (), [] and {} so expressions may span lines.
	ignoreLF bool
	depth    int
	errors   int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// New creates a parser over a complete token slice.
func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF, File: ctx.FilePath})
	}
	return newParser(&tokenStream{tokens: tokens, done: true}, ctx)
}

// NewFromSource creates a parser that pulls tokens lazily from src.
func NewFromSource(src TokenSource, ctx *pipeline.PipelineContext) *Parser {
	return newParser(&tokenStream{src: src}, ctx)
}

func newParser(stream *tokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{ctx: ctx, stream: stream, pos: -1}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.NAME:        p.parseIdentifier,
		token.INT:         p.parseIntegerLiteral,
		token.FLOAT:       p.parseFloatLiteral,
		token.STRING:      p.parseStringLiteral,
		token.TRUE:        p.parseBoolean,
		token.FALSE:       p.parseBoolean,
		token.NIL:         p.parseNil,
		token.START_QUOTE: p.parseTemplateString,
		token.LBRACKET:    p.parseListLiteral,
		token.LBRACE:      p.parseObjectLiteral,
		token.LPAREN:      p.parseGroupedExpression,
		token.MINUS:       p.parsePrefixExpression,
		token.NOT:         p.parsePrefixExpression,
		token.IF:          p.parseIfExpression,
		token.FOR:         p.parseForExpression,
		token.SWITCH:      p.parseSwitchExpression,
		token.DO:          p.parseDoExpression,
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tokType := range ast.InfixOperators {
		p.infixParseFns[tokType] = p.parseInfixExpression
	}
	for tokType := range ast.AssignOperators {
		p.infixParseFns[tokType] = p.parseAssignExpression
	}
	p.infixParseFns[token.LPAREN] = p.parseCallExpression
	p.infixParseFns[token.LBRACKET] = p.parseSubscriptExpression
	p.infixParseFns[token.DOT] = p.parseDotExpression
	p.infixParseFns[token.QUESTION] = p.parseSuppressExpression
	p.infixParseFns[token.PIPE] = p.parsePipelineExpression
	p.infixParseFns[token.FAT_ARROW] = p.parseFunctionLiteral

	p.nextToken()
	return p
}

// Errors returns the number of diagnostics this parser has produced.
func (p *Parser) Errors() int {
	return p.errors
}

func (p *Parser) nextToken() {
	p.pos++
	if p.ignoreLF {
		for p.stream.at(p.pos).Type == token.LF {
			p.pos++
		}
	}
	p.curToken = p.stream.at(p.pos)
}

func (p *Parser) peekToken() token.Token {
	i := p.pos + 1
	if p.ignoreLF {
		for p.stream.at(i).Type == token.LF {
			i++
		}
	}
	return p.stream.at(i)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken().Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken().Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) addError(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	if tok.File == "" {
		tok.File = p.ctx.FilePath
	}
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(code, tok, format, args...))
	p.errors++
}

func (p *Parser) peekError(t token.TokenType) {
	tok := p.peekToken()
	p.addError(diagnostics.ErrP002, tok, "unexpected %s, expected %s", tok.Type.Describe(), t.Describe())
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.addError(diagnostics.ErrP001, tok, "unexpected %s, expected an expression", tok.Type.Describe())
}

// enterDelimited turns on newline skipping and returns a function that
// restores the previous mode.
func (p *Parser) enterDelimited() func() {
	saved := p.ignoreLF
	p.ignoreLF = true
	return func() { p.ignoreLF = saved }
}

func (p *Parser) tooDeep() bool {
	if p.depth > config.MaxRecursionDepth {
		p.addError(diagnostics.ErrP006, p.curToken, "expression too complex: recursion depth limit exceeded")
		return true
	}
	return false
}

// isStatementBoundary reports whether t ends a statement in a block.
func isStatementBoundary(t token.TokenType) bool {
	switch t {
	case token.LF, token.COMMAND_START, token.COMMAND_END, token.TEXT, token.EOF:
		return true
	}
	return isBlockTerminator(t)
}

// isBlockTerminator reports whether t ends the statement list of a block.
func isBlockTerminator(t token.TokenType) bool {
	switch t {
	case token.ELSE, token.END, token.CASE, token.DEFAULT, token.EOF, token.END_QUOTE:
		return true
	}
	return false
}

func (p *Parser) skipToStatementBoundary() {
	for !isStatementBoundary(p.curToken.Type) {
		p.nextToken()
	}
}

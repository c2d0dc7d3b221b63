package parser

import (
	"strings"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/lexer"
	"github.com/nielssp/plet/internal/pipeline"
	"github.com/nielssp/plet/internal/token"
)

// ParseObjectNotation parses a single literal value: numbers, strings, nil,
// true, false and nested lists and objects. Nothing is evaluated. When
// expectEOF is set, any token after the value is an error.
func (p *Parser) ParseObjectNotation(expectEOF bool) ast.Node {
	p.ignoreLF = true
	for p.curTokenIs(token.LF) {
		p.nextToken()
	}
	node := p.parseNotationValue()
	if node == nil {
		return nil
	}
	if expectEOF && !p.peekTokenIs(token.EOF) {
		tok := p.peekToken()
		p.addError(diagnostics.ErrP007, tok, "unexpected %s, expected end of input", tok.Type.Describe())
		return nil
	}
	return node
}

// Rest returns the tokens following the current one.
func (p *Parser) Rest() []token.Token {
	var rest []token.Token
	for i := p.pos + 1; ; i++ {
		tok := p.stream.at(i)
		rest = append(rest, tok)
		if tok.Type == token.EOF {
			return rest
		}
	}
}

func (p *Parser) parseNotationValue() ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.tooDeep() {
		return nil
	}
	switch p.curToken.Type {
	case token.INT:
		return p.parseIntegerLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.NIL:
		return p.parseNil()
	case token.TRUE, token.FALSE:
		return p.parseBoolean()
	case token.MINUS:
		start := p.curToken
		p.nextToken()
		switch p.curToken.Type {
		case token.INT:
			value, _ := p.curToken.Literal.(int64)
			return &ast.IntegerLiteral{Span: ast.Span{Token: start, End: p.curToken}, Value: -value}
		case token.FLOAT:
			value, _ := p.curToken.Literal.(float64)
			return &ast.FloatLiteral{Span: ast.Span{Token: start, End: p.curToken}, Value: -value}
		}
		p.addError(diagnostics.ErrP007, p.curToken, "unexpected %s, expected a number", p.curToken.Type.Describe())
		return nil
	case token.START_QUOTE:
		return p.parseNotationString()
	case token.LBRACKET:
		list := &ast.ListLiteral{Span: p.span(), Elements: []ast.Node{}}
		for !p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			elem := p.parseNotationValue()
			if elem == nil {
				return nil
			}
			list.Elements = append(list.Elements, elem)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		list.SetEnd(p.curToken)
		return list
	case token.LBRACE:
		obj := &ast.ObjectLiteral{Span: p.span()}
		for !p.peekTokenIs(token.RBRACE) {
			p.nextToken()
			var key ast.Node
			if p.curTokenIs(token.NAME) || (token.IsKeyword(p.curToken.Type) && !isLiteralKeyword(p.curToken.Type)) {
				key = p.parseIdentifier()
			} else {
				key = p.parseNotationValue()
				if key == nil {
					return nil
				}
			}
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			value := p.parseNotationValue()
			if value == nil {
				return nil
			}
			obj.Properties = append(obj.Properties, &ast.Property{Key: key, Value: value})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		obj.SetEnd(p.curToken)
		return obj
	}
	p.addError(diagnostics.ErrP007, p.curToken, "unexpected %s, expected a literal value", p.curToken.Type.Describe())
	return nil
}

// parseNotationString accepts a double-quoted string without commands.
func (p *Parser) parseNotationString() ast.Node {
	start := p.curToken
	value := ""
	p.nextToken()
	if p.curTokenIs(token.TEXT) {
		value, _ = p.curToken.Literal.(string)
		p.nextToken()
	}
	if !p.curTokenIs(token.END_QUOTE) {
		p.addError(diagnostics.ErrP007, p.curToken, "commands are not allowed in object notation strings")
		return nil
	}
	return &ast.StringLiteral{Span: ast.Span{Token: start, End: p.curToken}, Value: value}
}

func isLiteralKeyword(t token.TokenType) bool {
	return t == token.NIL || t == token.TRUE || t == token.FALSE
}

// Parse parses a template token stream.
func Parse(tokens []token.Token, path string) (*ast.Block, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{FilePath: path}
	root := New(tokens, ctx).ParseTemplate()
	return root, ctx.Errors
}

// ParseObjectNotation parses one literal value from tokens. Unless
// expectEOF is set, the tokens after the value are returned.
func ParseObjectNotation(tokens []token.Token, path string, expectEOF bool) (ast.Node, []token.Token, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{FilePath: path}
	p := New(tokens, ctx)
	node := p.ParseObjectNotation(expectEOF)
	if expectEOF || node == nil {
		return node, nil, ctx.Errors
	}
	return node, p.Rest(), ctx.Errors
}

// ParseFrontMatter parses an object-notation header at the start of input
// and returns it with the remaining text. Input that does not start with
// "{" has no front matter.
func ParseFrontMatter(input, path string) (ast.Node, string, []*diagnostics.DiagnosticError) {
	if !strings.HasPrefix(strings.TrimLeft(input, " \t\r\n"), "{") {
		return nil, input, nil
	}
	l := lexer.NewScript(input, path)
	ctx := &pipeline.PipelineContext{FilePath: path}
	node := NewFromSource(l, ctx).ParseObjectNotation(false)
	errs := append(l.Errors(), ctx.Errors...)
	if node == nil || len(errs) > 0 {
		return nil, input, errs
	}
	rest := input[l.Offset():]
	rest = strings.TrimPrefix(strings.TrimPrefix(rest, "\r"), "\n")
	return node, rest, nil
}

package parser

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/token"
)

// ParseTemplate parses the whole token stream as a template block.
func (p *Parser) ParseTemplate() *ast.Block {
	root := &ast.Block{Span: p.span(), Template: true}
	// The root block starts at the first token, not after it.
	p.pos--
	for {
		block := p.parseBlock(true)
		root.Statements = append(root.Statements, block.Statements...)
		if p.curTokenIs(token.EOF) {
			break
		}
		p.addError(diagnostics.ErrP001, p.curToken, "unexpected %s", p.curToken.Type.Describe())
		if p.curTokenIs(token.END) && token.IsKeyword(p.peekToken().Type) {
			p.nextToken()
		}
	}
	root.SetEnd(p.curToken)
	return root
}

// parseBlock parses statements following the current token until a block
// terminator, which becomes the current token. Newlines separate statements
// inside blocks even when the enclosing expression ignores them.
func (p *Parser) parseBlock(template bool) *ast.Block {
	saved := p.ignoreLF
	p.ignoreLF = false
	defer func() { p.ignoreLF = saved }()

	block := &ast.Block{Span: ast.Span{Token: p.curToken}, Template: template, Statements: []ast.Node{}}
	p.nextToken()
	last := block.Token
	for {
		switch p.curToken.Type {
		case token.LF, token.COMMAND_START, token.COMMAND_END:
			p.nextToken()
			continue
		case token.TEXT:
			text, _ := p.curToken.Literal.(string)
			block.Statements = append(block.Statements, &ast.StringLiteral{Span: p.span(), Value: text, Text: true})
			last = p.curToken
			p.nextToken()
			continue
		}
		if isBlockTerminator(p.curToken.Type) {
			break
		}
		start := p.pos
		stmt := p.parseStatement()
		if stmt == nil {
			if p.pos == start && !isStatementBoundary(p.curToken.Type) {
				p.nextToken()
			}
			p.skipToStatementBoundary()
			continue
		}
		block.Statements = append(block.Statements, stmt)
		last = stmt.EndToken()
		p.nextToken()
	}
	block.SetEnd(last)
	return block
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.EXPORT:
		return p.parseExportStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK, token.CONTINUE:
		return p.parseLoopControl()
	}
	return p.parseExpression(LOWEST)
}

// expectEnd consumes "end <keyword>". The current token must be END.
func (p *Parser) expectEnd(keyword token.TokenType) bool {
	if !p.curTokenIs(token.END) {
		p.addError(diagnostics.ErrP003, p.curToken, "unexpected %s, expected \"end\" %s", p.curToken.Type.Describe(), keyword.Describe())
		return false
	}
	next := p.peekToken()
	if next.Type == keyword {
		p.nextToken()
		return true
	}
	p.addError(diagnostics.ErrP003, next, "unexpected %s, expected %s", next.Type.Describe(), keyword.Describe())
	if token.IsKeyword(next.Type) {
		p.nextToken()
	}
	return false
}

func (p *Parser) parseIfExpression() ast.Node {
	expr := p.parseIfBranch()
	if expr == nil {
		return nil
	}
	p.expectEnd(token.IF)
	expr.SetEnd(p.curToken)
	return expr
}

// parseIfBranch parses one if and its else if chain without the closing
// "end if".
func (p *Parser) parseIfBranch() *ast.IfExpression {
	expr := &ast.IfExpression{Span: p.span()}
	p.nextToken()
	expr.Condition = p.parseExpression(LOWEST)
	if expr.Condition == nil {
		return nil
	}
	if p.peekTokenIs(token.THEN) {
		p.nextToken()
	}
	expr.Consequence = p.parseBlock(true)
	if p.curTokenIs(token.ELSE) {
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alt := p.parseIfBranch()
			if alt == nil {
				return nil
			}
			expr.Alternative = alt
		} else {
			expr.Alternative = p.parseBlock(true)
		}
	}
	return expr
}

func (p *Parser) parseForExpression() ast.Node {
	expr := &ast.ForExpression{Span: p.span()}
	if !p.expectPeek(token.NAME) {
		return nil
	}
	expr.Value = p.curToken.Lexeme
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(token.NAME) {
			return nil
		}
		expr.Key = expr.Value
		expr.Value = p.curToken.Lexeme
	}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	expr.Collection = p.parseExpression(LOWEST)
	if expr.Collection == nil {
		return nil
	}
	expr.Body = p.parseBlock(true)
	if p.curTokenIs(token.ELSE) {
		expr.Alternative = p.parseBlock(true)
	}
	p.expectEnd(token.FOR)
	expr.SetEnd(p.curToken)
	return expr
}

func (p *Parser) parseSwitchExpression() ast.Node {
	expr := &ast.SwitchExpression{Span: p.span()}
	p.nextToken()
	expr.Subject = p.parseExpression(LOWEST)
	if expr.Subject == nil {
		return nil
	}
	p.nextToken()
	for {
		switch p.curToken.Type {
		case token.LF, token.TEXT, token.COMMAND_START, token.COMMAND_END:
			p.nextToken()
			continue
		}
		break
	}
	for {
		if p.curTokenIs(token.CASE) {
			c := &ast.SwitchCase{}
			for {
				p.nextToken()
				value := p.parseExpression(LOWEST)
				if value == nil {
					return nil
				}
				c.Values = append(c.Values, value)
				if !p.peekTokenIs(token.COMMA) {
					break
				}
				p.nextToken()
			}
			c.Body = p.parseBlock(true)
			expr.Cases = append(expr.Cases, c)
		} else if p.curTokenIs(token.DEFAULT) {
			if expr.Default != nil {
				p.addError(diagnostics.ErrP001, p.curToken, "duplicate default case")
			}
			expr.Default = p.parseBlock(true)
		} else {
			break
		}
	}
	p.expectEnd(token.SWITCH)
	expr.SetEnd(p.curToken)
	return expr
}

// parseDoExpression parses do ... end do. Unlike other blocks its value is
// the value of its last statement.
func (p *Parser) parseDoExpression() ast.Node {
	start := p.curToken
	block := p.parseBlock(false)
	block.Token = start
	p.expectEnd(token.DO)
	block.SetEnd(p.curToken)
	return block
}

func (p *Parser) parseExportStatement() ast.Node {
	stmt := &ast.ExportStatement{Span: p.span()}
	if !p.expectPeek(token.NAME) {
		return nil
	}
	stmt.Name = p.curToken.Lexeme
	stmt.SetEnd(p.curToken)
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
		if stmt.Value == nil {
			return nil
		}
		stmt.SetEnd(stmt.Value.EndToken())
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Node {
	stmt := &ast.ReturnStatement{Span: p.span()}
	if endsValue(p.peekToken().Type) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	stmt.SetEnd(stmt.Value.EndToken())
	return stmt
}

func (p *Parser) parseLoopControl() ast.Node {
	span := p.span()
	levels := int64(1)
	if p.peekTokenIs(token.INT) {
		p.nextToken()
		levels, _ = p.curToken.Literal.(int64)
		span.End = p.curToken
	}
	if span.Token.Type == token.BREAK {
		return &ast.BreakStatement{Span: span, Levels: levels}
	}
	return &ast.ContinueStatement{Span: span, Levels: levels}
}

// endsValue reports whether t cannot start the operand of return.
func endsValue(t token.TokenType) bool {
	switch t {
	case token.RPAREN, token.RBRACKET, token.RBRACE, token.COMMA:
		return true
	}
	return isStatementBoundary(t)
}

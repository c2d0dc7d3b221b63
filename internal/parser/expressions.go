package parser

import (
	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.tooDeep() {
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken().Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) span() ast.Span {
	return ast.Span{Token: p.curToken, End: p.curToken}
}

func (p *Parser) parseIdentifier() ast.Node {
	return &ast.Identifier{Span: p.span(), Value: p.curToken.Lexeme}
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	value, _ := p.curToken.Literal.(int64)
	return &ast.IntegerLiteral{Span: p.span(), Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Node {
	value, _ := p.curToken.Literal.(float64)
	return &ast.FloatLiteral{Span: p.span(), Value: value}
}

func (p *Parser) parseStringLiteral() ast.Node {
	value, _ := p.curToken.Literal.(string)
	return &ast.StringLiteral{Span: p.span(), Value: value}
}

func (p *Parser) parseBoolean() ast.Node {
	return &ast.BooleanLiteral{Span: p.span(), Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Node {
	return &ast.NilLiteral{Span: p.span()}
}

// parseTemplateString parses "text {code} text" into a template block.
func (p *Parser) parseTemplateString() ast.Node {
	start := p.curToken
	block := p.parseBlock(true)
	block.Token = start
	if !p.curTokenIs(token.END_QUOTE) {
		p.addError(diagnostics.ErrP002, p.curToken, "unexpected %s, expected end quote", p.curToken.Type.Describe())
		return nil
	}
	block.SetEnd(p.curToken)
	return block
}

func (p *Parser) parseListLiteral() ast.Node {
	restore := p.enterDelimited()
	defer restore()
	list := &ast.ListLiteral{Span: p.span()}
	elements, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	list.Elements = elements
	list.SetEnd(p.curToken)
	return list
}

// parseExpressionList parses comma separated expressions up to end. A
// trailing comma is allowed. The current token is the opening delimiter.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Node, bool) {
	list := []ast.Node{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}
	for {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseObjectLiteral() ast.Node {
	restore := p.enterDelimited()
	defer restore()
	obj := &ast.ObjectLiteral{Span: p.span()}
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		var key ast.Node
		if p.curTokenIs(token.NAME) {
			key = p.parseIdentifier()
		} else {
			key = p.parseExpression(LOWEST)
			if key == nil {
				return nil
			}
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
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

// parseGroupedExpression parses (expr) or a tuple (a, b). Tuples are only
// meaningful as closure parameter lists.
func (p *Parser) parseGroupedExpression() ast.Node {
	restore := p.enterDelimited()
	defer restore()
	start := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleExpression{Span: ast.Span{Token: start, End: p.curToken}, Elements: []ast.Node{}}
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return first
	}
	tuple := &ast.TupleExpression{Span: ast.Span{Token: start}, Elements: []ast.Node{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RPAREN) {
			break
		}
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		tuple.Elements = append(tuple.Elements, expr)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	tuple.SetEnd(p.curToken)
	return tuple
}

func (p *Parser) parsePrefixExpression() ast.Node {
	expression := &ast.PrefixExpression{Span: p.span(), Operator: ast.OpNeg}
	precedence := PREFIX
	if p.curTokenIs(token.NOT) {
		expression.Operator = ast.OpNot
		precedence = NOT
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	expression.SetEnd(expression.Right.EndToken())
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	expression := &ast.InfixExpression{
		Span:     ast.Span{Token: p.curToken},
		Operator: ast.InfixOperators[p.curToken.Type],
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	expression.SetEnd(expression.Right.EndToken())
	return expression
}

func (p *Parser) parseAssignExpression(left ast.Node) ast.Node {
	switch left.(type) {
	case *ast.Identifier, *ast.SubscriptExpression, *ast.DotExpression:
	default:
		p.addError(diagnostics.ErrP004, left.GetToken(), "invalid assignment target")
		return nil
	}
	expression := &ast.AssignExpression{
		Span:     ast.Span{Token: p.curToken},
		Target:   left,
		Operator: ast.AssignOperators[p.curToken.Type],
	}
	p.nextToken()
	// Right associative: a = b = c is a = (b = c).
	expression.Value = p.parseExpression(ASSIGN - 1)
	if expression.Value == nil {
		return nil
	}
	expression.SetEnd(expression.Value.EndToken())
	return expression
}

func (p *Parser) parseCallExpression(function ast.Node) ast.Node {
	restore := p.enterDelimited()
	defer restore()
	expression := &ast.CallExpression{Span: ast.Span{Token: function.GetToken()}, Function: function}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	expression.Arguments = args
	expression.SetEnd(p.curToken)
	return expression
}

func (p *Parser) parseSubscriptExpression(left ast.Node) ast.Node {
	restore := p.enterDelimited()
	defer restore()
	expression := &ast.SubscriptExpression{Span: ast.Span{Token: left.GetToken()}, Left: left}
	p.nextToken()
	expression.Index = p.parseExpression(LOWEST)
	if expression.Index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	expression.SetEnd(p.curToken)
	return expression
}

func (p *Parser) parseDotExpression(left ast.Node) ast.Node {
	next := p.peekToken()
	if next.Type != token.NAME && !token.IsKeyword(next.Type) {
		p.peekError(token.NAME)
		return nil
	}
	p.nextToken()
	return &ast.DotExpression{
		Span: ast.Span{Token: left.GetToken(), End: p.curToken},
		Left: left,
		Name: p.curToken.Lexeme,
	}
}

func (p *Parser) parseSuppressExpression(left ast.Node) ast.Node {
	return &ast.SuppressExpression{
		Span:       ast.Span{Token: left.GetToken(), End: p.curToken},
		Expression: left,
	}
}

// parsePipelineExpression parses left | name(args).
func (p *Parser) parsePipelineExpression(left ast.Node) ast.Node {
	expression := &ast.PipelineExpression{Span: ast.Span{Token: p.curToken}, Left: left}
	if !p.expectPeek(token.NAME) {
		return nil
	}
	expression.Function = &ast.Identifier{Span: p.span(), Value: p.curToken.Lexeme}
	expression.Arguments = []ast.Node{}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		restore := p.enterDelimited()
		args, ok := p.parseExpressionList(token.RPAREN)
		restore()
		if !ok {
			return nil
		}
		expression.Arguments = args
	}
	expression.SetEnd(p.curToken)
	return expression
}

// parseFunctionLiteral parses the body of params => body. The parameter
// list has already been parsed as left.
func (p *Parser) parseFunctionLiteral(left ast.Node) ast.Node {
	fn := &ast.FunctionLiteral{Span: ast.Span{Token: left.GetToken()}}
	switch params := left.(type) {
	case *ast.Identifier:
		fn.Parameters = []string{params.Value}
	case *ast.TupleExpression:
		fn.Parameters = make([]string, 0, len(params.Elements))
		for _, elem := range params.Elements {
			ident, ok := elem.(*ast.Identifier)
			if !ok {
				p.addError(diagnostics.ErrP005, elem.GetToken(), "invalid parameter, expected a name")
				return nil
			}
			fn.Parameters = append(fn.Parameters, ident.Value)
		}
	default:
		p.addError(diagnostics.ErrP005, left.GetToken(), "invalid parameter list")
		return nil
	}
	p.nextToken()
	fn.Body = p.parseExpression(LOWEST)
	if fn.Body == nil {
		return nil
	}
	fn.FreeVariables = freeVariables(fn.Parameters, fn.Body)
	fn.SetEnd(fn.Body.EndToken())
	return fn
}

// freeVariables lists the names referenced in body that are not params, in
// order of first reference. Free variables of nested functions count as
// references of the enclosing one.
func freeVariables(params []string, body ast.Node) []string {
	bound := make(map[string]bool, len(params))
	for _, param := range params {
		bound[param] = true
	}
	seen := make(map[string]bool)
	free := []string{}
	add := func(name string) {
		if !bound[name] && !seen[name] {
			seen[name] = true
			free = append(free, name)
		}
	}
	var visit func(ast.Node) bool
	visit = func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.Identifier:
			add(n.Value)
		case *ast.FunctionLiteral:
			for _, name := range n.FreeVariables {
				add(name)
			}
			return false
		case *ast.ObjectLiteral:
			// Name keys are symbols, not references.
			for _, prop := range n.Properties {
				if _, ok := prop.Key.(*ast.Identifier); !ok {
					ast.Walk(prop.Key, visit)
				}
				ast.Walk(prop.Value, visit)
			}
			return false
		}
		return true
	}
	ast.Walk(body, visit)
	return free
}

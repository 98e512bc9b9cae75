package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
)

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseOrExpression()
}

func (p *Parser) parseOrExpression() (ast.Expr, error) {
	left, err := p.parseXorExpression()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseXorExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXorExpression() (ast.Expr, error) {
	left, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("XOR") {
		right, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpXor, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpression() (ast.Expr, error) {
	left, err := p.parseNotExpression()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpression() (ast.Expr, error) {
	if p.acceptKeyword("NOT") {
		operand, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparisonExpression()
}

var comparisonOps = map[TokenType]ast.Operator{
	TokenEqual:        ast.OpEq,
	TokenNotEqual:     ast.OpNeq,
	TokenLess:         ast.OpLt,
	TokenLessEqual:    ast.OpLte,
	TokenGreater:      ast.OpGt,
	TokenGreaterEqual: ast.OpGte,
	TokenRegexMatch:   ast.OpRegex,
}

// parseComparisonExpression handles chained comparisons: a < b < c is
// read as a < b AND b < c.
func (p *Parser) parseComparisonExpression() (ast.Expr, error) {
	left, err := p.parsePredicateExpression()
	if err != nil {
		return nil, err
	}
	var terms []ast.Expr
	for {
		op, ok := comparisonOps[p.current().Type]
		if !ok {
			break
		}
		p.nextToken()
		right, err := p.parsePredicateExpression()
		if err != nil {
			return nil, err
		}
		terms = append(terms, &ast.Binary{Op: op, Left: left, Right: right})
		left = right
	}
	if len(terms) == 0 {
		return left, nil
	}
	return ast.AndAll(terms), nil
}

func (p *Parser) parsePredicateExpression() (ast.Expr, error) {
	left, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Operator
		switch {
		case p.atKeyword("STARTS") && isKeyword(p.peek(1), "WITH"):
			p.nextToken()
			p.nextToken()
			op = ast.OpStartsWith
		case p.atKeyword("ENDS") && isKeyword(p.peek(1), "WITH"):
			p.nextToken()
			p.nextToken()
			op = ast.OpEndsWith
		case p.atKeyword("CONTAINS"):
			p.nextToken()
			op = ast.OpContains
		case p.atKeyword("IN"):
			p.nextToken()
			op = ast.OpIn
		case p.atKeyword("IS"):
			p.nextToken()
			negated := p.acceptKeyword("NOT")
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = &ast.IsNull{Operand: left, Negated: negated}
			continue
		default:
			return left, nil
		}
		right, err := p.parseAdditiveExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditiveExpression() (ast.Expr, error) {
	left, err := p.parseMultiplicativeExpression()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Operator
		switch p.current().Type {
		case TokenPlus:
			op = ast.OpAdd
		case TokenMinus:
			op = ast.OpSub
		default:
			return left, nil
		}
		p.nextToken()
		right, err := p.parseMultiplicativeExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicativeExpression() (ast.Expr, error) {
	left, err := p.parsePowerExpression()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Operator
		switch p.current().Type {
		case TokenStar:
			op = ast.OpMul
		case TokenSlash:
			op = ast.OpDiv
		case TokenPercent:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.nextToken()
		right, err := p.parsePowerExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parsePowerExpression() (ast.Expr, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenCaret) {
		right, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpPow, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnaryExpression() (ast.Expr, error) {
	switch p.current().Type {
	case TokenMinus:
		p.nextToken()
		// Negative numeric literals are folded so that -9223372036854775808 parses.
		if tok := p.current(); tok.Type == TokenInteger || tok.Type == TokenFloat {
			p.nextToken()
			lit, err := numberLiteral("-"+tok.Literal, tok)
			if err != nil {
				return nil, err
			}
			return p.parsePostfix(lit)
		}
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNeg, Operand: operand}, nil
	case TokenPlus:
		p.nextToken()
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpPos, Operand: operand}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(atom)
}

func (p *Parser) parsePostfix(subject ast.Expr) (ast.Expr, error) {
	for {
		switch p.current().Type {
		case TokenDot:
			p.nextToken()
			key, err := p.parseName()
			if err != nil {
				return nil, err
			}
			subject = &ast.Property{Subject: subject, Key: key}
		case TokenLeftBracket:
			p.nextToken()
			var from ast.Expr
			var err error
			if !p.currentTokenIs(TokenDotDot) {
				if from, err = p.parseExpression(); err != nil {
					return nil, err
				}
			}
			if p.accept(TokenDotDot) {
				var to ast.Expr
				if !p.currentTokenIs(TokenRightBracket) {
					if to, err = p.parseExpression(); err != nil {
						return nil, err
					}
				}
				if _, err := p.expect(TokenRightBracket); err != nil {
					return nil, err
				}
				subject = &ast.Slice{Subject: subject, From: from, To: to}
				continue
			}
			if _, err := p.expect(TokenRightBracket); err != nil {
				return nil, err
			}
			subject = &ast.Index{Subject: subject, Index: from}
		case TokenColon:
			// Label predicates only follow a variable; "{a: b}" is handled by the map parser.
			if _, ok := subject.(*ast.Variable); !ok {
				return subject, nil
			}
			labels, err := p.parseLabels()
			if err != nil {
				return nil, err
			}
			subject = &ast.HasLabels{Subject: subject, Labels: labels}
		default:
			return subject, nil
		}
	}
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case TokenInteger, TokenFloat:
		p.nextToken()
		return numberLiteral(tok.Literal, tok)
	case TokenString:
		p.nextToken()
		return &ast.Literal{Value: tok.Literal}, nil
	case TokenParameter:
		p.nextToken()
		return &ast.Parameter{Name: tok.Literal}, nil
	case TokenLeftBracket:
		return p.parseListOrComprehension()
	case TokenLeftBrace:
		return p.parseMapLiteral()
	case TokenLeftParen:
		p.nextToken()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return e, nil
	case TokenQuotedIdent:
		p.nextToken()
		return &ast.Variable{Name: tok.Literal}, nil
	case TokenIdent:
		return p.parseIdentAtom()
	}
	return nil, p.errorf("unexpected %s in expression", describe(tok))
}

func (p *Parser) parseIdentAtom() (ast.Expr, error) {
	tok := p.current()
	switch strings.ToLower(tok.Literal) {
	case "true":
		p.nextToken()
		return ast.True(), nil
	case "false":
		p.nextToken()
		return ast.False(), nil
	case "null":
		p.nextToken()
		return ast.Null(), nil
	case "case":
		return p.parseCase()
	}

	if name, n := p.functionName(); n > 0 {
		for i := 0; i < n; i++ {
			p.nextToken()
		}
		return p.parseFunctionCall(name)
	}

	p.nextToken()
	return &ast.Variable{Name: tok.Literal}, nil
}

// functionName looks ahead for "a.b.c(" and returns the dotted name and
// the number of tokens it spans (excluding the parenthesis).
func (p *Parser) functionName() (string, int) {
	parts := []string{p.current().Literal}
	n := 1
	for {
		next := p.peek(n)
		if next.Type == TokenLeftParen {
			return strings.Join(parts, "."), n
		}
		if next.Type != TokenDot {
			return "", 0
		}
		name := p.peek(n + 1)
		if name.Type != TokenIdent && name.Type != TokenQuotedIdent {
			return "", 0
		}
		parts = append(parts, name.Literal)
		n += 2
	}
}

func (p *Parser) parseFunctionCall(name string) (ast.Expr, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	if strings.EqualFold(name, "count") && p.currentTokenIs(TokenStar) {
		p.nextToken()
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return &ast.CountStar{}, nil
	}

	call := &ast.FunctionCall{Name: name}
	if p.acceptKeyword("DISTINCT") {
		call.Distinct = true
	}
	if !p.currentTokenIs(TokenRightParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.accept(TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	p.nextToken() // CASE
	c := &ast.Case{}
	if !p.atKeyword("WHEN") {
		subject, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Subject = subject
	}
	for p.acceptKeyword("WHEN") {
		when, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, &ast.CaseWhen{When: when, Then: then})
	}
	if len(c.Whens) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN")
	}
	if p.acceptKeyword("ELSE") {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Else = e
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseListOrComprehension() (ast.Expr, error) {
	p.nextToken() // [
	if tok := p.current(); (tok.Type == TokenIdent || tok.Type == TokenQuotedIdent) && isKeyword(p.peek(1), "IN") {
		p.nextToken()
		p.nextToken()
		lc := &ast.ListComprehension{Variable: tok.Literal}
		var err error
		if lc.Source, err = p.parseExpression(); err != nil {
			return nil, err
		}
		if p.acceptKeyword("WHERE") {
			if lc.Where, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if p.accept(TokenPipe) {
			if lc.Projection, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
		return lc, nil
	}

	list := &ast.ListLiteral{Items: []ast.Expr{}}
	if p.accept(TokenRightBracket) {
		return list, nil
	}
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBracket); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseMapLiteral() (*ast.MapLiteral, error) {
	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	m := &ast.MapLiteral{Keys: []string{}, Values: []ast.Expr{}}
	if p.accept(TokenRightBrace) {
		return m, nil
	}
	seen := map[string]bool{}
	for {
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, p.errorf("duplicate map key %q", key)
		}
		seen[key] = true
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, value)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return m, nil
}

func numberLiteral(text string, tok Token) (ast.Expr, error) {
	if tok.Type == TokenFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("float out of range: %s", text)}
		}
		return &ast.Literal{Value: f}, nil
	}
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("integer out of range: %s", text)}
	}
	return &ast.Literal{Value: n}, nil
}

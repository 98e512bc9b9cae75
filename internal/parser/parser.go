package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
)

// Parse parses query text into a statement.
func Parse(input string) (*ast.Statement, error) {
	p, err := NewParser(input)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Parser parses query text into an ast.Statement
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser tokenizes input and returns a parser positioned on the first token.
func NewParser(input string) (*Parser, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	return &Parser{tokens: tokens}, nil
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) nextToken() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) currentTokenIs(t TokenType) bool {
	return p.current().Type == t
}

func (p *Parser) accept(t TokenType) bool {
	if p.currentTokenIs(t) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if !p.currentTokenIs(t) {
		return Token{}, p.errorf("expected %s, got %s", t, describe(p.current()))
	}
	return p.nextToken(), nil
}

func isKeyword(tok Token, kw string) bool {
	return tok.Type == TokenIdent && strings.EqualFold(tok.Literal, kw)
}

func (p *Parser) atKeyword(kw string) bool {
	return isKeyword(p.current(), kw)
}

func (p *Parser) acceptKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.errorf("expected %s, got %s", kw, describe(p.current()))
	}
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	tok := p.current()
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent, TokenInteger, TokenFloat:
		return fmt.Sprintf("%q", tok.Literal)
	case TokenString:
		return fmt.Sprintf("string %q", tok.Literal)
	case TokenParameter:
		return "$" + tok.Literal
	}
	return tok.Type.String()
}

// Parse parses a complete statement.
func (p *Parser) Parse() (*ast.Statement, error) {
	stmt := &ast.Statement{}
	if p.acceptKeyword("EXPLAIN") {
		stmt.Explain = true
	}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	stmt.Query = q

	p.accept(TokenSemicolon)
	if !p.currentTokenIs(TokenEOF) {
		return nil, p.errorf("unexpected %s", describe(p.current()))
	}
	return stmt, nil
}

func (p *Parser) parseQuery() (ast.Query, error) {
	first, err := p.parseSingleQuery()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("UNION") {
		if err := checkConclusion(first, p); err != nil {
			return nil, err
		}
		return first, nil
	}

	union := &ast.Union{Branches: []*ast.SingleQuery{first}}
	sawAll, sawDistinct := false, false
	for p.acceptKeyword("UNION") {
		if p.acceptKeyword("ALL") {
			sawAll = true
		} else {
			sawDistinct = true
		}
		if sawAll && sawDistinct {
			return nil, p.errorf("invalid combination of UNION and UNION ALL")
		}
		branch, err := p.parseSingleQuery()
		if err != nil {
			return nil, err
		}
		union.Branches = append(union.Branches, branch)
	}
	union.All = sawAll

	for _, b := range union.Branches {
		if _, ok := b.Clauses[len(b.Clauses)-1].(*ast.Projection); !ok {
			return nil, p.errorf("every UNION branch must end with RETURN")
		}
	}
	return union, nil
}

func checkConclusion(q *ast.SingleQuery, p *Parser) error {
	switch c := q.Clauses[len(q.Clauses)-1].(type) {
	case *ast.Match:
		return p.errorf("query cannot conclude with MATCH (must be RETURN or an update clause)")
	case *ast.Unwind:
		return p.errorf("query cannot conclude with UNWIND (must be RETURN or an update clause)")
	case *ast.Projection:
		if c.Kind == ast.With {
			return p.errorf("query cannot conclude with WITH (must be RETURN or an update clause)")
		}
	}
	return nil
}

func (p *Parser) parseSingleQuery() (*ast.SingleQuery, error) {
	q := &ast.SingleQuery{}
	for {
		tok := p.current()
		if tok.Type == TokenEOF || tok.Type == TokenSemicolon || isKeyword(tok, "UNION") {
			break
		}
		if len(q.Clauses) > 0 {
			if proj, ok := q.Clauses[len(q.Clauses)-1].(*ast.Projection); ok && proj.Kind == ast.Return {
				return nil, p.errorf("RETURN can only be used at the end of the query")
			}
		}
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		q.Clauses = append(q.Clauses, clause)
	}
	if len(q.Clauses) == 0 {
		return nil, p.errorf("expected a clause, got %s", describe(p.current()))
	}
	return q, nil
}

func (p *Parser) parseClause() (ast.Clause, error) {
	switch {
	case p.atKeyword("MATCH"):
		p.nextToken()
		return p.parseMatch(false)
	case p.atKeyword("OPTIONAL"):
		p.nextToken()
		if err := p.expectKeyword("MATCH"); err != nil {
			return nil, err
		}
		return p.parseMatch(true)
	case p.atKeyword("CREATE"):
		p.nextToken()
		patterns, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return &ast.Create{Patterns: patterns}, nil
	case p.atKeyword("MERGE"):
		p.nextToken()
		return p.parseMerge()
	case p.atKeyword("DETACH"):
		p.nextToken()
		if err := p.expectKeyword("DELETE"); err != nil {
			return nil, err
		}
		return p.parseDelete(true)
	case p.atKeyword("DELETE"):
		p.nextToken()
		return p.parseDelete(false)
	case p.atKeyword("SET"):
		p.nextToken()
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		return &ast.Set{Items: items}, nil
	case p.atKeyword("REMOVE"):
		p.nextToken()
		return p.parseRemove()
	case p.atKeyword("WITH"):
		p.nextToken()
		return p.parseProjection(ast.With)
	case p.atKeyword("RETURN"):
		p.nextToken()
		return p.parseProjection(ast.Return)
	case p.atKeyword("UNWIND"):
		p.nextToken()
		return p.parseUnwind()
	case p.atKeyword("CALL"):
		p.nextToken()
		return p.parseCall()
	}
	return nil, p.errorf("unexpected %s, expected a clause", describe(p.current()))
}

func (p *Parser) parseMatch(optional bool) (ast.Clause, error) {
	patterns, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	m := &ast.Match{Optional: optional, Patterns: patterns}
	if p.acceptKeyword("WHERE") {
		m.Where, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (p *Parser) parseMerge() (ast.Clause, error) {
	part, err := p.parsePatternPart()
	if err != nil {
		return nil, err
	}
	m := &ast.Merge{Pattern: part}
	for p.atKeyword("ON") {
		p.nextToken()
		onCreate := false
		switch {
		case p.acceptKeyword("CREATE"):
			onCreate = true
		case p.acceptKeyword("MATCH"):
		default:
			return nil, p.errorf("expected CREATE or MATCH after ON, got %s", describe(p.current()))
		}
		if err := p.expectKeyword("SET"); err != nil {
			return nil, err
		}
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		if onCreate {
			m.OnCreate = append(m.OnCreate, items...)
		} else {
			m.OnMatch = append(m.OnMatch, items...)
		}
	}
	return m, nil
}

func (p *Parser) parseDelete(detach bool) (ast.Clause, error) {
	d := &ast.Delete{Detach: detach}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Targets = append(d.Targets, e)
		if !p.accept(TokenComma) {
			return d, nil
		}
	}
}

func (p *Parser) parseName() (string, error) {
	tok := p.current()
	if tok.Type == TokenIdent || tok.Type == TokenQuotedIdent {
		p.nextToken()
		return tok.Literal, nil
	}
	return "", p.errorf("expected a name, got %s", describe(tok))
}

func (p *Parser) parseSetItems() ([]ast.SetItem, error) {
	var items []ast.SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.accept(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseSetItem() (ast.SetItem, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	switch p.current().Type {
	case TokenColon:
		labels, err := p.parseLabels()
		if err != nil {
			return nil, err
		}
		return &ast.SetLabels{Variable: name, Labels: labels}, nil
	case TokenDot:
		p.nextToken()
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEqual); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		prop := &ast.Property{Subject: &ast.Variable{Name: name}, Key: key}
		return &ast.SetProperty{Property: prop, Value: value}, nil
	case TokenEqual, TokenPlusEqual:
		merge := p.nextToken().Type == TokenPlusEqual
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.SetVariable{Variable: name, Value: value, Merge: merge}, nil
	}
	return nil, p.errorf("expected '.', ':', '=' or '+=' in SET, got %s", describe(p.current()))
}

func (p *Parser) parseRemove() (ast.Clause, error) {
	r := &ast.Remove{}
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		switch p.current().Type {
		case TokenColon:
			labels, err := p.parseLabels()
			if err != nil {
				return nil, err
			}
			r.Items = append(r.Items, &ast.RemoveLabels{Variable: name, Labels: labels})
		case TokenDot:
			p.nextToken()
			key, err := p.parseName()
			if err != nil {
				return nil, err
			}
			prop := &ast.Property{Subject: &ast.Variable{Name: name}, Key: key}
			r.Items = append(r.Items, &ast.RemoveProperty{Property: prop})
		default:
			return nil, p.errorf("expected '.' or ':' in REMOVE, got %s", describe(p.current()))
		}
		if !p.accept(TokenComma) {
			return r, nil
		}
	}
}

func (p *Parser) parseLabels() ([]string, error) {
	var labels []string
	for p.accept(TokenColon) {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		labels = append(labels, name)
	}
	return labels, nil
}

func (p *Parser) parseProjection(kind ast.ProjectionKind) (ast.Clause, error) {
	proj := &ast.Projection{Kind: kind}
	if p.acceptKeyword("DISTINCT") {
		proj.Distinct = true
	}

	proj.Star = p.accept(TokenStar)
	if !proj.Star || p.accept(TokenComma) {
		for {
			item, err := p.parseProjectionItem()
			if err != nil {
				return nil, err
			}
			proj.Items = append(proj.Items, item)
			if !p.accept(TokenComma) {
				break
			}
		}
	}

	if p.atKeyword("ORDER") {
		p.nextToken()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			item := &ast.SortItem{Expr: e}
			switch {
			case p.acceptKeyword("DESC"), p.acceptKeyword("DESCENDING"):
				item.Descending = true
			case p.acceptKeyword("ASC"), p.acceptKeyword("ASCENDING"):
			}
			proj.OrderBy = append(proj.OrderBy, item)
			if !p.accept(TokenComma) {
				break
			}
		}
	}
	var err error
	if p.acceptKeyword("SKIP") {
		if proj.Skip, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("LIMIT") {
		if proj.Limit, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if kind == ast.With && p.acceptKeyword("WHERE") {
		if proj.Where, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return proj, nil
}

func (p *Parser) parseProjectionItem() (*ast.ProjectionItem, error) {
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	item := &ast.ProjectionItem{Expr: e}
	if p.acceptKeyword("AS") {
		if item.Alias, err = p.parseName(); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (p *Parser) parseUnwind() (ast.Clause, error) {
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	return &ast.Unwind{Source: e, Alias: name}, nil
}

func (p *Parser) parseCall() (ast.Clause, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	parts := []string{name}
	for p.accept(TokenDot) {
		part, err := p.parseName()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	call := &ast.Call{Procedure: strings.Join(parts, ".")}

	if p.accept(TokenLeftParen) {
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
	}

	if !p.acceptKeyword("YIELD") {
		call.Implicit = true
		return call, nil
	}
	if p.accept(TokenStar) {
		call.Implicit = true
		return call, nil
	}
	for {
		field, err := p.parseName()
		if err != nil {
			return nil, err
		}
		item := &ast.YieldItem{Field: field}
		if p.acceptKeyword("AS") {
			if item.Alias, err = p.parseName(); err != nil {
				return nil, err
			}
		}
		call.Yields = append(call.Yields, item)
		if !p.accept(TokenComma) {
			return call, nil
		}
	}
}

func (p *Parser) parsePattern() ([]*ast.PatternPart, error) {
	var parts []*ast.PatternPart
	for {
		part, err := p.parsePatternPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		if !p.accept(TokenComma) {
			return parts, nil
		}
	}
}

func (p *Parser) parsePatternPart() (*ast.PatternPart, error) {
	part := &ast.PatternPart{}
	if tok := p.current(); (tok.Type == TokenIdent || tok.Type == TokenQuotedIdent) && p.peek(1).Type == TokenEqual {
		part.PathVariable = tok.Literal
		p.nextToken()
		p.nextToken()
	}

	node, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	part.Nodes = append(part.Nodes, node)

	for p.currentTokenIs(TokenMinus) || (p.currentTokenIs(TokenLess) && p.peek(1).Type == TokenMinus) {
		rel, err := p.parseRelPattern()
		if err != nil {
			return nil, err
		}
		node, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		part.Rels = append(part.Rels, rel)
		part.Nodes = append(part.Nodes, node)
	}
	return part, nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	node := &ast.NodePattern{}
	if tok := p.current(); tok.Type == TokenIdent || tok.Type == TokenQuotedIdent {
		node.Variable = tok.Literal
		p.nextToken()
	}
	labels, err := p.parseLabels()
	if err != nil {
		return nil, err
	}
	node.Labels = labels
	if node.Properties, err = p.parseOptionalProperties(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseOptionalProperties() (ast.Expr, error) {
	switch p.current().Type {
	case TokenLeftBrace:
		return p.parseMapLiteral()
	case TokenParameter:
		return &ast.Parameter{Name: p.nextToken().Literal}, nil
	}
	return nil, nil
}

// parseRelPattern parses "-[...]->", "<-[...]-", "-[...]-", "-->", "<--", "--".
func (p *Parser) parseRelPattern() (*ast.RelPattern, error) {
	rel := &ast.RelPattern{Direction: ast.Both}
	left := p.accept(TokenLess)
	if _, err := p.expect(TokenMinus); err != nil {
		return nil, err
	}

	if p.accept(TokenLeftBracket) {
		if err := p.parseRelDetail(rel); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenMinus); err != nil {
		return nil, err
	}
	right := p.accept(TokenGreater)

	switch {
	case left && right:
		return nil, p.errorf("relationship cannot point in both directions")
	case left:
		rel.Direction = ast.Incoming
	case right:
		rel.Direction = ast.Outgoing
	}
	return rel, nil
}

func (p *Parser) parseRelDetail(rel *ast.RelPattern) error {
	if tok := p.current(); tok.Type == TokenIdent || tok.Type == TokenQuotedIdent {
		rel.Variable = tok.Literal
		p.nextToken()
	}
	if p.accept(TokenColon) {
		for {
			name, err := p.parseName()
			if err != nil {
				return err
			}
			rel.Types = append(rel.Types, name)
			if !p.accept(TokenPipe) {
				break
			}
			p.accept(TokenColon)
		}
	}
	if p.accept(TokenStar) {
		r, err := p.parseRange()
		if err != nil {
			return err
		}
		rel.Length = r
	}
	props, err := p.parseOptionalProperties()
	if err != nil {
		return err
	}
	rel.Properties = props
	return nil
}

func (p *Parser) parseRange() (*ast.Range, error) {
	r := &ast.Range{}
	if p.currentTokenIs(TokenInteger) {
		n, err := p.parseIntToken()
		if err != nil {
			return nil, err
		}
		r.Min = &n
		if !p.currentTokenIs(TokenDotDot) {
			max := n
			r.Max = &max
			return r, nil
		}
	}
	if p.accept(TokenDotDot) && p.currentTokenIs(TokenInteger) {
		n, err := p.parseIntToken()
		if err != nil {
			return nil, err
		}
		r.Max = &n
	}
	return r, nil
}

func (p *Parser) parseIntToken() (int64, error) {
	tok := p.nextToken()
	n, err := strconv.ParseInt(tok.Literal, 0, 64)
	if err != nil {
		return 0, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("integer out of range: %s", tok.Literal)}
	}
	return n, nil
}

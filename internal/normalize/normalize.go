// Package normalize rewrites a parsed query tree into its canonical form.
//
// Normalize is pure and idempotent: it never modifies its input and
// Normalize(Normalize(t)) equals Normalize(t). The passes run in order:
//
//  1. Output naming: unaliased projection items get their display name and
//     RETURN * is expanded to the variables in scope.
//  2. Constant folding: three-valued simplification of literal boolean
//     subtrees.
//  3. Pattern folding: inline labels and property maps, and equivalent
//     WHERE conjuncts, become predicates attached to pattern elements.
//  4. Hoisting: ORDER BY keys that are not plain item names are moved into
//     a preceding projection under fresh names.
package normalize

import (
	"fmt"
	"sort"

	"github.com/roach88/cyphergremlin/internal/alias"
	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// Error is a semantic error detected while normalizing.
type Error struct {
	Code    ErrorCode
	Message string
}

// ErrorCode categorizes normalization errors.
type ErrorCode string

const (
	// ErrCodeNestedAggregation indicates an aggregate inside the arguments
	// of another aggregate.
	ErrCodeNestedAggregation ErrorCode = "NESTED_AGGREGATION"

	// ErrCodeNondeterministicAggregate indicates a non-deterministic
	// function inside the arguments of an aggregate.
	ErrCodeNondeterministicAggregate ErrorCode = "NONDETERMINISTIC_AGGREGATE"

	// ErrCodeEmptyProjection indicates RETURN * with nothing in scope.
	ErrCodeEmptyProjection ErrorCode = "EMPTY_PROJECTION"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Normalize returns the canonical form of stmt.
func Normalize(stmt *ast.Statement) (*ast.Statement, error) {
	env := alias.New()
	env.Reserve(StatementNames(stmt)...)

	n := &normalizer{env: env}
	out := &ast.Statement{Explain: stmt.Explain}
	switch q := stmt.Query.(type) {
	case *ast.SingleQuery:
		sq, err := n.single(q)
		if err != nil {
			return nil, err
		}
		out.Query = sq
	case *ast.Union:
		u := &ast.Union{All: q.All, Branches: make([]*ast.SingleQuery, len(q.Branches))}
		for i, b := range q.Branches {
			sq, err := n.single(b)
			if err != nil {
				return nil, err
			}
			u.Branches[i] = sq
		}
		out.Query = u
	default:
		return nil, fmt.Errorf("normalize: unsupported query type %T", stmt.Query)
	}
	return out, nil
}

type normalizer struct {
	env *alias.Env
}

func (n *normalizer) single(q *ast.SingleQuery) (*ast.SingleQuery, error) {
	if err := checkAggregates(q); err != nil {
		return nil, err
	}
	clauses, err := nameOutputs(q.Clauses)
	if err != nil {
		return nil, err
	}
	clauses = foldConstants(clauses)
	clauses = n.foldPatterns(clauses)
	clauses = n.hoist(clauses)
	return &ast.SingleQuery{Clauses: clauses}, nil
}

// checkAggregates rejects aggregates whose arguments contain another
// aggregate or a non-deterministic function.
func checkAggregates(q *ast.SingleQuery) error {
	var err error
	check := func(e ast.Expr) {
		ast.Inspect(e, func(node ast.Expr) bool {
			if err != nil {
				return false
			}
			call, ok := node.(*ast.FunctionCall)
			if !ok || !ast.IsAggregateFunction(call.Name) {
				return true
			}
			for _, arg := range call.Args {
				if ast.ContainsAggregate(arg) {
					err = &Error{
						Code:    ErrCodeNestedAggregation,
						Message: fmt.Sprintf("Can't use aggregate functions inside of aggregate functions: %s", ast.Format(call)),
					}
					return false
				}
				ast.Inspect(arg, func(inner ast.Expr) bool {
					if f, ok := inner.(*ast.FunctionCall); ok && ast.IsNondeterministicFunction(f.Name) && err == nil {
						err = &Error{
							Code:    ErrCodeNondeterministicAggregate,
							Message: fmt.Sprintf("Can't use non-deterministic (random) functions inside of aggregate functions: %s", ast.Format(call)),
						}
					}
					return err == nil
				})
			}
			return false
		})
	}
	for _, c := range q.Clauses {
		p, ok := c.(*ast.Projection)
		if !ok {
			continue
		}
		for _, item := range p.Items {
			check(item.Expr)
		}
		for _, s := range p.OrderBy {
			check(s.Expr)
		}
	}
	return err
}

// nameOutputs expands RETURN * and gives every projection item a name.
func nameOutputs(clauses []ast.Clause) ([]ast.Clause, error) {
	out := make([]ast.Clause, len(clauses))
	scope := map[string]bool{}
	addPatterns := func(parts ...*ast.PatternPart) {
		for _, p := range parts {
			for _, v := range p.Variables() {
				scope[v] = true
			}
		}
	}
	for i, c := range clauses {
		out[i] = c
		switch x := c.(type) {
		case *ast.Match:
			addPatterns(x.Patterns...)
		case *ast.Create:
			addPatterns(x.Patterns...)
		case *ast.Merge:
			addPatterns(x.Pattern)
		case *ast.Unwind:
			scope[x.Alias] = true
		case *ast.Call:
			for _, y := range x.Yields {
				scope[y.Name()] = true
			}
		case *ast.Projection:
			p := *x
			p.Items = nil
			if x.Star {
				for _, name := range userVariables(scope) {
					p.Items = append(p.Items, &ast.ProjectionItem{Expr: &ast.Variable{Name: name}, Alias: name})
				}
				if len(p.Items) == 0 && len(x.Items) == 0 {
					return nil, &Error{
						Code:    ErrCodeEmptyProjection,
						Message: fmt.Sprintf("%s * is not allowed when there are no variables in scope", x.Kind),
					}
				}
				p.Star = false
			}
			for _, item := range x.Items {
				p.Items = append(p.Items, &ast.ProjectionItem{Expr: item.Expr, Alias: outputName(item)})
			}
			scope = map[string]bool{}
			for _, item := range p.Items {
				scope[item.Alias] = true
			}
			out[i] = &p
		}
	}
	return out, nil
}

func outputName(item *ast.ProjectionItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if v, ok := item.Expr.(*ast.Variable); ok {
		return v.Name
	}
	return ast.Format(item.Expr)
}

// userVariables returns the sorted names in scope, leaving out generated
// names.
func userVariables(scope map[string]bool) []string {
	names := make([]string, 0, len(scope))
	for name := range scope {
		if !steps.IsSentinel(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// StatementNames collects every name the query binds so that generated
// names never collide with them.
func StatementNames(stmt *ast.Statement) []string {
	var names []string
	addExpr := func(e ast.Expr) {
		ast.Inspect(e, func(node ast.Expr) bool {
			switch x := node.(type) {
			case *ast.Variable:
				names = append(names, x.Name)
			case *ast.ListComprehension:
				names = append(names, x.Variable)
			}
			return true
		})
	}
	addPattern := func(p *ast.PatternPart) {
		names = append(names, p.Variables()...)
	}
	var branches []*ast.SingleQuery
	switch q := stmt.Query.(type) {
	case *ast.SingleQuery:
		branches = []*ast.SingleQuery{q}
	case *ast.Union:
		branches = q.Branches
	}
	for _, b := range branches {
		for _, c := range b.Clauses {
			switch x := c.(type) {
			case *ast.Match:
				for _, p := range x.Patterns {
					addPattern(p)
				}
				addExpr(x.Where)
			case *ast.Create:
				for _, p := range x.Patterns {
					addPattern(p)
				}
			case *ast.Merge:
				addPattern(x.Pattern)
			case *ast.Unwind:
				names = append(names, x.Alias)
				addExpr(x.Source)
			case *ast.Call:
				for _, y := range x.Yields {
					names = append(names, y.Name())
				}
			case *ast.Projection:
				for _, item := range x.Items {
					names = append(names, item.Alias)
					addExpr(item.Expr)
				}
			}
		}
	}
	return names
}

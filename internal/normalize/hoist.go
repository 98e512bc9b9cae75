package normalize

import (
	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// hoist splits every projection whose ORDER BY keys are not all plain
// names of its own items into
//
//	WITH <items AS fresh>, <order exprs AS fresh> ORDER BY fresh SKIP LIMIT
//	<kind> fresh AS <user name>, ...
//
// so that ordering only ever references projected columns.
func (n *normalizer) hoist(clauses []ast.Clause) []ast.Clause {
	out := make([]ast.Clause, 0, len(clauses))
	for _, c := range clauses {
		p, ok := c.(*ast.Projection)
		if !ok || !needsHoist(p) {
			out = append(out, c)
			continue
		}
		out = append(out, n.hoistProjection(p)...)
	}
	return out
}

func needsHoist(p *ast.Projection) bool {
	names := map[string]bool{}
	for _, item := range p.Items {
		names[item.Alias] = true
	}
	for _, s := range p.OrderBy {
		v, ok := s.Expr.(*ast.Variable)
		if !ok || !names[v.Name] {
			return true
		}
	}
	return false
}

func (n *normalizer) hoistProjection(p *ast.Projection) []ast.Clause {
	inner := &ast.Projection{
		Kind:     ast.With,
		Distinct: p.Distinct,
		Skip:     p.Skip,
		Limit:    p.Limit,
	}
	outer := &ast.Projection{Kind: p.Kind, Where: p.Where}

	// Order keys may name items; those resolve to the item expression.
	byAlias := map[string]ast.Expr{}
	byText := map[string]string{}
	for _, item := range p.Items {
		fresh := n.env.Fresh(steps.Generated)
		byAlias[item.Alias] = item.Expr
		text := ast.Format(item.Expr)
		if _, ok := byText[text]; !ok {
			byText[text] = fresh
		}
		inner.Items = append(inner.Items, &ast.ProjectionItem{Expr: item.Expr, Alias: fresh})
		outer.Items = append(outer.Items, &ast.ProjectionItem{Expr: &ast.Variable{Name: fresh}, Alias: item.Alias})
	}

	for _, s := range p.OrderBy {
		key := ast.Rewrite(s.Expr, func(e ast.Expr) ast.Expr {
			if v, ok := e.(*ast.Variable); ok {
				if expr, ok := byAlias[v.Name]; ok {
					return expr
				}
			}
			return e
		})
		text := ast.Format(key)
		fresh, ok := byText[text]
		if !ok {
			fresh = n.env.Fresh(steps.Generated)
			byText[text] = fresh
			inner.Items = append(inner.Items, &ast.ProjectionItem{Expr: key, Alias: fresh})
		}
		inner.OrderBy = append(inner.OrderBy, &ast.SortItem{Expr: &ast.Variable{Name: fresh}, Descending: s.Descending})
	}
	return []ast.Clause{inner, outer}
}

package normalize

import (
	"sort"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// foldPatterns rewrites every MATCH so that label and property-equality
// constraints live in the Predicates of the element they constrain,
// whether they were written inline or in WHERE.
func (n *normalizer) foldPatterns(clauses []ast.Clause) []ast.Clause {
	out := make([]ast.Clause, len(clauses))
	for i, c := range clauses {
		out[i] = c
		if m, ok := c.(*ast.Match); ok {
			out[i] = n.foldMatch(m)
		}
	}
	return out
}

// element is a pattern node or relationship that can carry predicates.
type element struct {
	node *ast.NodePattern
	rel  *ast.RelPattern
}

func (e element) add(pred ast.Expr) {
	if e.node != nil {
		e.node.Predicates = append(e.node.Predicates, pred)
	} else {
		e.rel.Predicates = append(e.rel.Predicates, pred)
	}
}

func (n *normalizer) foldMatch(m *ast.Match) *ast.Match {
	out := &ast.Match{Optional: m.Optional, Patterns: make([]*ast.PatternPart, len(m.Patterns))}

	// First occurrence of each variable in this clause. Variable-length
	// relationships are absent: WHERE terms never fold into them.
	targets := map[string]element{}
	var elements []element
	for i, p := range m.Patterns {
		part := &ast.PatternPart{PathVariable: p.PathVariable}
		for j, node := range p.Nodes {
			cp := n.foldNode(node)
			part.Nodes = append(part.Nodes, cp)
			elements = append(elements, element{node: cp})
			if _, seen := targets[cp.Variable]; !seen {
				targets[cp.Variable] = element{node: cp}
			}
			if j < len(p.Rels) {
				rel := n.foldRel(p.Rels[j])
				part.Rels = append(part.Rels, rel)
				elements = append(elements, element{rel: rel})
				if _, seen := targets[rel.Variable]; !seen && !rel.VariableLength() {
					targets[rel.Variable] = element{rel: rel}
				}
			}
		}
		out.Patterns[i] = part
	}

	var rest []ast.Expr
	for _, term := range ast.Conjuncts(m.Where) {
		folded := false
		for _, pred := range splitLabels(term) {
			if v, ok := attachable(pred); ok {
				if target, ok := targets[v]; ok {
					target.add(orient(pred))
					folded = true
					continue
				}
			}
			folded = false
			break
		}
		if !folded {
			rest = append(rest, term)
		}
	}
	out.Where = ast.AndAll(rest)

	for _, e := range elements {
		if e.node != nil {
			e.node.Predicates = canonicalPredicates(e.node.Predicates)
		} else {
			e.rel.Predicates = canonicalPredicates(e.rel.Predicates)
		}
	}
	return out
}

// foldNode copies node, naming it if anonymous and turning inline labels
// and literal property maps into predicates.
func (n *normalizer) foldNode(node *ast.NodePattern) *ast.NodePattern {
	cp := &ast.NodePattern{
		Variable:   node.Variable,
		Properties: node.Properties,
		Predicates: append([]ast.Expr(nil), node.Predicates...),
	}
	if cp.Variable == "" {
		cp.Variable = n.env.Fresh(steps.Unnamed)
	}
	subject := &ast.Variable{Name: cp.Variable}
	for _, label := range node.Labels {
		cp.Predicates = append(cp.Predicates, &ast.HasLabels{Subject: subject, Labels: []string{label}})
	}
	if props, ok := node.Properties.(*ast.MapLiteral); ok {
		cp.Predicates = append(cp.Predicates, propertyPredicates(subject, props)...)
		cp.Properties = nil
	}
	return cp
}

// foldRel copies rel, naming it if anonymous. Types stay inline: they are
// alternatives, not a conjunction.
func (n *normalizer) foldRel(rel *ast.RelPattern) *ast.RelPattern {
	cp := *rel
	cp.Predicates = append([]ast.Expr(nil), rel.Predicates...)
	if cp.Variable == "" {
		cp.Variable = n.env.Fresh(steps.Unnamed)
	}
	if props, ok := rel.Properties.(*ast.MapLiteral); ok {
		cp.Predicates = append(cp.Predicates, propertyPredicates(&ast.Variable{Name: cp.Variable}, props)...)
		cp.Properties = nil
	}
	return &cp
}

func propertyPredicates(subject *ast.Variable, props *ast.MapLiteral) []ast.Expr {
	out := make([]ast.Expr, len(props.Keys))
	for i, key := range props.Keys {
		out[i] = &ast.Binary{
			Op:    ast.OpEq,
			Left:  &ast.Property{Subject: subject, Key: key},
			Right: props.Values[i],
		}
	}
	return out
}

// splitLabels turns v:A:B into v:A and v:B.
func splitLabels(term ast.Expr) []ast.Expr {
	h, ok := term.(*ast.HasLabels)
	if !ok || len(h.Labels) < 2 {
		return []ast.Expr{term}
	}
	out := make([]ast.Expr, len(h.Labels))
	for i, l := range h.Labels {
		out[i] = &ast.HasLabels{Subject: h.Subject, Labels: []string{l}}
	}
	return out
}

// attachable returns the variable a WHERE term constrains when the term is
// a single label check or an equality between one of its properties and a
// literal or parameter.
func attachable(term ast.Expr) (string, bool) {
	switch x := term.(type) {
	case *ast.HasLabels:
		if v, ok := x.Subject.(*ast.Variable); ok && len(x.Labels) == 1 {
			return v.Name, true
		}
	case *ast.Binary:
		if x.Op != ast.OpEq {
			return "", false
		}
		if v, ok := propertyOfVariable(x.Left); ok && isValue(x.Right) {
			return v, true
		}
		if v, ok := propertyOfVariable(x.Right); ok && isValue(x.Left) {
			return v, true
		}
	}
	return "", false
}

func propertyOfVariable(e ast.Expr) (string, bool) {
	p, ok := e.(*ast.Property)
	if !ok {
		return "", false
	}
	v, ok := p.Subject.(*ast.Variable)
	if !ok {
		return "", false
	}
	return v.Name, true
}

func isValue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Literal, *ast.Parameter:
		return true
	}
	return false
}

// orient puts the property on the left of an equality.
func orient(pred ast.Expr) ast.Expr {
	b, ok := pred.(*ast.Binary)
	if !ok {
		return pred
	}
	if _, ok := b.Left.(*ast.Property); ok {
		return b
	}
	return &ast.Binary{Op: b.Op, Left: b.Right, Right: b.Left}
}

// canonicalPredicates sorts labels first, then property equalities by key,
// and drops duplicates. Other predicates keep their relative order after
// both.
func canonicalPredicates(preds []ast.Expr) []ast.Expr {
	if len(preds) == 0 {
		return nil
	}
	rank := func(e ast.Expr) (int, string) {
		switch x := e.(type) {
		case *ast.HasLabels:
			return 0, x.Labels[0]
		case *ast.Binary:
			if p, ok := x.Left.(*ast.Property); ok {
				return 1, p.Key
			}
		}
		return 2, ""
	}
	seen := map[string]bool{}
	out := make([]ast.Expr, 0, len(preds))
	for _, p := range preds {
		key := ast.Format(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, ki := rank(out[i])
		rj, kj := rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return ki < kj
	})
	return out
}

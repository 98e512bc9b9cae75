package translate

import (
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// filter lowers a WHERE condition to a traversal for where(). A row passes
// only when the condition is true; null and false both reject it, which
// lets AND and OR map onto and() and or() directly.
func (t *translator) filter(e ast.Expr) steps.Steps {
	switch x := e.(type) {
	case *ast.Literal:
		if x.Value == true {
			return t.anon().Identity()
		}
		return t.anon().Not(t.anon().Identity())
	case *ast.Binary:
		switch x.Op {
		case ast.OpAnd:
			return t.anon().And(t.filter(x.Left), t.filter(x.Right))
		case ast.OpOr:
			return t.anon().Or(t.filter(x.Left), t.filter(x.Right))
		}
		if s, ok := t.propertyFilter(x); ok {
			return s
		}
	case *ast.HasLabels:
		if label, ok := t.elementLabel(x.Subject); ok {
			s := t.anon().Select(label)
			for _, l := range x.Labels {
				s.HasLabel(l)
			}
			return s
		}
	case *ast.IsNull:
		if v, ok := x.Operand.(*ast.Variable); ok {
			if b, ok := t.lookup(v.Name); ok && !b.varPath {
				if x.Negated {
					return t.anon().Select(b.label).Is(steps.Neq(steps.Null))
				}
				return t.anon().Select(b.label).Is(steps.Eq(steps.Null))
			}
		}
		if p, ok := x.Operand.(*ast.Property); ok {
			if label, ok := t.elementLabel(p.Subject); ok {
				if x.Negated {
					return t.anon().Select(label).Has(p.Key)
				}
				return t.anon().Select(label).HasNot(p.Key)
			}
		}
	case *ast.FunctionCall:
		if strings.EqualFold(x.Name, "exists") && len(x.Args) == 1 {
			if p, ok := x.Args[0].(*ast.Property); ok {
				if label, ok := t.elementLabel(p.Subject); ok {
					return t.anon().Select(label).Has(p.Key)
				}
			}
		}
	}
	return t.value(e).Is(steps.Eq(true))
}

// elementLabel returns the label of e when e is a variable bound to a graph
// element that is never null and was not deleted.
func (t *translator) elementLabel(e ast.Expr) (string, bool) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return "", false
	}
	b, ok := t.lookup(v.Name)
	if !ok || !b.typ.Element() || b.nullable || b.deleted {
		return "", false
	}
	return b.label, true
}

// propertyFilter lowers a comparison between an element property, or the
// type of a relationship, and a non-null constant.
func (t *translator) propertyFilter(x *ast.Binary) (steps.Steps, bool) {
	subject, other, op := x.Left, x.Right, x.Op
	if _, ok := t.constant(other); !ok && x.Op.IsComparison() {
		subject, other, op = x.Right, x.Left, mirror(x.Op)
	}
	c, ok := t.constant(other)
	if !ok || c == nil {
		return nil, false
	}

	var s steps.Steps
	switch subj := subject.(type) {
	case *ast.Property:
		label, ok := t.elementLabel(subj.Subject)
		if !ok {
			return nil, false
		}
		s = t.anon().Select(label).Values(subj.Key)
	case *ast.FunctionCall:
		if !strings.EqualFold(subj.Name, "type") || len(subj.Args) != 1 || !op.IsComparison() {
			return nil, false
		}
		label, ok := t.elementLabel(subj.Args[0])
		if !ok {
			return nil, false
		}
		s = t.anon().Select(label).Label()
	default:
		return nil, false
	}

	switch {
	case op.IsComparison():
		return s.Is(comparisonPredicate(op, c)), true
	case op == ast.OpStartsWith:
		return s.Is(steps.StartingWith(c)), true
	case op == ast.OpEndsWith:
		return s.Is(steps.EndingWith(c)), true
	case op == ast.OpContains:
		return s.Is(steps.Containing(c)), true
	case op == ast.OpRegex:
		return s.Is(steps.Regex(c)), true
	case op == ast.OpIn:
		list, ok := listValue(c)
		if !ok {
			return nil, false
		}
		for _, v := range list {
			if v == nil || v == steps.Null {
				return nil, false
			}
		}
		return s.Is(steps.Within(list...)), true
	}
	return nil, false
}

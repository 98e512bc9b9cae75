package translate

import (
	"sort"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// unboundedHops is the hop limit of a variable-length relationship
// without an upper bound.
const unboundedHops = 10

// introduction is one path label a pattern clause binds.
type introduction struct {
	name    string // user variable, empty for reuse labels
	label   string
	binding *binding
}

// patternState tracks the labels bound while lowering one clause.
type patternState struct {
	optional bool
	intros   []introduction
	rels     []string // single-hop relationship labels new in this clause
}

func (p *patternState) local(name string) (*binding, bool) {
	for _, in := range p.intros {
		if in.name == name {
			return in.binding, true
		}
	}
	return nil, false
}

func (p *patternState) labels() []string {
	out := make([]string, len(p.intros))
	for i, in := range p.intros {
		out[i] = in.label
	}
	return out
}

func (t *translator) match(m *ast.Match) {
	if m.Optional {
		t.optionalMatch(m)
		return
	}
	state := &patternState{}
	t.patterns(t.main, m.Patterns, state)
	t.started = true
	t.bindIntros(state, false)
	if m.Where != nil {
		t.main.Where(t.filter(m.Where))
	}
}

// optionalMatch wraps the clause in coalesce(pattern, null row) so that it
// always yields at least one row with the same variables bound.
func (t *translator) optionalMatch(m *ast.Match) {
	t.source()
	state := &patternState{optional: true}
	inner := t.anon()
	t.patterns(inner, m.Patterns, state)

	saved := t.scope
	t.scope = copyScope(saved)
	t.bindIntros(state, false)
	if m.Where != nil {
		inner.Where(t.filter(m.Where))
	}
	t.scope = saved

	labels := state.labels()
	if len(labels) == 1 {
		t.main.Coalesce(inner, t.anon().Constant(steps.Null)).As(labels[0])
		t.bindIntros(state, true)
		return
	}

	inner.Select(labels...)
	empty := t.anon().Constant(steps.Null)
	for _, l := range labels {
		empty.As(l)
	}
	empty.Select(labels...)

	row := t.env.Fresh(steps.Generated)
	t.main.Coalesce(inner, empty).As(row)
	for _, in := range state.intros {
		if in.name != "" && !steps.IsSentinel(in.name) {
			t.main.Select(row).Select(in.label).As(in.label)
		}
	}
	t.bindIntros(state, true)
}

func (t *translator) bindIntros(state *patternState, nullable bool) {
	for _, in := range state.intros {
		if in.name == "" {
			continue
		}
		b := *in.binding
		b.nullable = b.nullable || nullable
		t.bind(in.name, &b)
	}
}

func copyScope(s map[string]*binding) map[string]*binding {
	out := make(map[string]*binding, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// patterns lowers the parts of one MATCH clause into s.
func (t *translator) patterns(s steps.Steps, parts []*ast.PatternPart, state *patternState) {
	for _, part := range parts {
		t.patternPart(s, part, state)
	}
	if len(state.rels) > 1 {
		var conds []steps.Steps
		for i := 0; i < len(state.rels); i++ {
			for j := i + 1; j < len(state.rels); j++ {
				conds = append(conds, t.anon().Select(state.rels[i]).WherePredicate(steps.Neq(state.rels[j])))
			}
		}
		s.Where(and(t, conds))
	}
}

func and(t *translator, conds []steps.Steps) steps.Steps {
	if len(conds) == 1 {
		return conds[0]
	}
	return t.anon().And(conds...)
}

func (t *translator) patternPart(s steps.Steps, part *ast.PatternPart, state *patternState) {
	s.V()
	t.node(s, part.Nodes[0], state)
	for i, rel := range part.Rels {
		next := part.Nodes[i+1]
		if rel.VariableLength() {
			t.variableLength(s, rel, next, state)
			continue
		}
		switch rel.Direction {
		case ast.Outgoing:
			s.OutE(rel.Types...)
		case ast.Incoming:
			s.InE(rel.Types...)
		default:
			s.BothE(rel.Types...)
		}
		label := t.element(s, rel.Variable, ast.TypeRelationship, rel.Predicates, rel.Properties, state)
		if label == rel.Variable {
			state.rels = append(state.rels, label)
		}
		switch rel.Direction {
		case ast.Outgoing:
			s.InV()
		case ast.Incoming:
			s.OutV()
		default:
			s.OtherV()
		}
		t.node(s, next, state)
	}
	if part.PathVariable != "" {
		s.Path().As(part.PathVariable)
		state.intros = append(state.intros, introduction{
			name:    part.PathVariable,
			label:   part.PathVariable,
			binding: &binding{label: part.PathVariable, typ: ast.TypePath},
		})
	}
}

func (t *translator) node(s steps.Steps, n *ast.NodePattern, state *patternState) {
	t.element(s, n.Variable, ast.TypeNode, n.Predicates, n.Properties, state)
}

// element labels the current graph element. A variable bound earlier gets
// a fresh label plus an equality guard against its first binding.
func (t *translator) element(s steps.Steps, name string, typ ast.Type, preds []ast.Expr, props ast.Expr, state *patternState) string {
	label := name
	prev, bound := t.lookup(name)
	if !bound {
		prev, bound = state.local(name)
	}
	if bound {
		if state.optional {
			label = t.env.Next(name)
		} else {
			label = t.env.Fresh(steps.Generated)
		}
		s.As(label).Where(t.anon().Select(label).WherePredicate(steps.Eq(prev.label)))
		state.intros = append(state.intros, introduction{label: label, binding: &binding{label: label, typ: typ}})
	} else {
		s.As(label)
		state.intros = append(state.intros, introduction{
			name:    name,
			label:   label,
			binding: &binding{label: label, typ: typ},
		})
	}
	if conds := t.guards(name, label, typ, preds, props); len(conds) > 0 {
		s.Where(and(t, conds))
	}
	return label
}

// guards lowers the predicates attached to one pattern element.
func (t *translator) guards(name, label string, typ ast.Type, preds []ast.Expr, props ast.Expr) []steps.Steps {
	var conds []steps.Steps
	if p, ok := props.(*ast.Parameter); ok {
		m, isMap := t.ctx.Params[p.Name].(map[string]any)
		if !isMap {
			t.fail(ErrCodeUnsupported, "pattern property parameter $%s must be bound to a map", p.Name)
			return nil
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			conds = append(conds, t.anon().Select(label).Values(k).Is(steps.Eq(nullSentinel(m[k]))))
		}
	}
	if len(preds) == 0 {
		return conds
	}

	saved := t.scope
	t.scope = copyScope(saved)
	t.bind(name, &binding{label: label, typ: typ})
	defer func() { t.scope = saved }()

	for _, p := range preds {
		switch x := p.(type) {
		case *ast.HasLabels:
			c := t.anon().Select(label)
			for _, l := range x.Labels {
				c.HasLabel(l)
			}
			conds = append(conds, c)
			continue
		case *ast.Binary:
			if prop, ok := x.Left.(*ast.Property); ok && x.Op == ast.OpEq {
				if v, ok := t.constant(x.Right); ok && v != nil {
					conds = append(conds, t.anon().Select(label).Values(prop.Key).Is(steps.Eq(v)))
					continue
				}
			}
		}
		conds = append(conds, t.filter(p))
	}
	return conds
}

// variableLength lowers a hop-range relationship as a bounded repeat. The
// loop is bounded by the path element count, which is 2*hops+1.
func (t *translator) variableLength(s steps.Steps, rel *ast.RelPattern, next *ast.NodePattern, state *patternState) {
	if _, bound := t.lookup(rel.Variable); bound {
		t.fail(ErrCodeUnsupported, "variable-length relationship %s is already bound", rel.Variable)
		return
	}
	body := t.anon()
	switch rel.Direction {
	case ast.Outgoing:
		body.OutE(rel.Types...).As(rel.Variable).InV()
	case ast.Incoming:
		body.InE(rel.Types...).As(rel.Variable).OutV()
	default:
		body.BothE(rel.Types...).As(rel.Variable).OtherV()
	}

	lo, hi := int64(1), int64(-1)
	if rel.Length.Min != nil {
		lo = *rel.Length.Min
	}
	if rel.Length.Max != nil {
		hi = *rel.Length.Max
	}
	if hi >= 0 && lo > hi {
		t.fail(ErrCodeInvalidRange, "invalid hop range *%d..%d", lo, hi)
		return
	}
	sentinel := 2*unboundedHops + 1
	if hi >= 0 {
		sentinel = 2*int(hi) + 1
	}
	pathLength := func() steps.Steps { return t.anon().Path().CountLocal() }
	until := pathLength().Is(steps.Gte(int64(sentinel)))

	switch {
	case rel.Length.Fixed():
		if lo > 0 {
			s.Times(int(lo)).Repeat(body)
		}
	case lo <= 1 && hi < 0:
		if lo == 0 {
			s.Emit()
		}
		s.Repeat(body).Emit().Until(until)
	case lo <= 1:
		if lo == 0 {
			s.Emit()
		}
		s.Repeat(body).Emit().Until(until).Where(pathLength().Is(steps.Lte(int64(sentinel))))
	case hi < 0:
		s.Emit().Repeat(body).Until(until).Where(pathLength().Is(steps.Gte(2*lo + 1)))
	default:
		s.Emit().Repeat(body).Until(until).Where(pathLength().Is(steps.Between(2*lo+1, int64(sentinel)+1)))
	}

	t.node(s, next, state)

	state.intros = append(state.intros, introduction{
		name:    rel.Variable,
		label:   rel.Variable,
		binding: &binding{label: rel.Variable, typ: ast.TypeList, varPath: true},
	})
	if conds := t.guards(rel.Variable, rel.Variable, ast.TypeRelationship, rel.Predicates, rel.Properties); len(conds) > 0 {
		s.Where(and(t, conds))
	}
}

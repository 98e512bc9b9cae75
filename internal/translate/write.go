package translate

import (
	"sort"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/extension"
	"github.com/roach88/cyphergremlin/internal/steps"
)

func (t *translator) create(c *ast.Create) {
	for _, part := range c.Patterns {
		if part.PathVariable != "" {
			t.fail(ErrCodeUnsupported, "path variables are not supported in CREATE")
			return
		}
		standalone := len(part.Rels) == 0
		left := t.createNode(part.Nodes[0], standalone)
		for i, rel := range part.Rels {
			right := t.createNode(part.Nodes[i+1], false)
			t.createRel(rel, left, right)
			left = right
		}
	}
}

// createNode adds the node unless its variable is already bound, and
// returns the label holding it. A bound variable may only appear bare
// inside a relationship chain, where it names the existing node.
func (t *translator) createNode(n *ast.NodePattern, standalone bool) string {
	name := n.Variable
	if name == "" {
		name = t.env.Fresh(steps.Unnamed)
	}
	decorated := len(n.Labels) > 0 || n.Properties != nil
	if b, ok := t.lookup(name); ok {
		switch {
		case decorated:
			t.fail(ErrCodeAmbiguousRebinding,
				"Can't create node `%s` with labels or properties here. The variable is already declared in this context", name)
		case standalone:
			t.fail(ErrCodeAmbiguousRebinding, "Variable `%s` already declared", name)
		case b.typ != ast.TypeNode && b.typ != ast.TypeAny:
			t.fail(ErrCodeAmbiguousRebinding, "Type mismatch: `%s` defined with conflicting type %s (expected NODE)", name, b.typ)
		}
		return b.label
	}
	if len(n.Labels) > 1 {
		t.fail(ErrCodeMultipleLabels, "Only one label per node is supported: %s", name)
		return name
	}
	label := ""
	if len(n.Labels) == 1 {
		label = n.Labels[0]
	}
	t.main.AddV(label).As(name)
	t.started = true
	t.writeProperties(t.main, name, ast.TypeNode, n.Properties)
	t.bind(name, &binding{label: name, typ: ast.TypeNode})
	return name
}

func (t *translator) createRel(rel *ast.RelPattern, left, right string) {
	name := rel.Variable
	if name == "" {
		name = t.env.Fresh(steps.Unnamed)
	}
	if _, bound := t.lookup(name); bound {
		t.fail(ErrCodeAmbiguousRebinding, "Can't create `%s` with properties or labels here. It already exists in this context", name)
		return
	}
	if rel.VariableLength() {
		t.fail(ErrCodeUnsupported, "Variable length relationships cannot be used in CREATE")
		return
	}
	if len(rel.Types) != 1 {
		t.fail(ErrCodeUnsupported, "Exactly one relationship type must be specified for CREATE")
		return
	}
	from, to := left, right
	switch rel.Direction {
	case ast.Incoming:
		from, to = right, left
	case ast.Both:
		t.fail(ErrCodeUnsupported, "Only directed relationships are supported in CREATE")
		return
	}
	t.main.AddE(rel.Types[0]).From(from).To(to).As(name)
	t.writeProperties(t.main, name, ast.TypeRelationship, rel.Properties)
	t.bind(name, &binding{label: name, typ: ast.TypeRelationship})
}

// writeProperties sets the inline properties of a newly created element,
// which is the current traverser of s.
func (t *translator) writeProperties(s steps.Steps, label string, typ ast.Type, props ast.Expr) {
	switch x := props.(type) {
	case nil:
	case *ast.MapLiteral:
		for i, key := range x.Keys {
			v, ok := t.constant(x.Values[i])
			switch {
			case ok && v == nil:
			case ok:
				s.Property(key, v)
			default:
				t.setProperty(s, label, typ, key, x.Values[i])
			}
		}
	case *ast.Parameter:
		m, ok := t.ctx.Params[x.Name].(map[string]any)
		if !ok {
			t.fail(ErrCodeUnsupported, "property parameter $%s must be bound to a map", x.Name)
			return
		}
		for _, key := range sortedKeys(m) {
			if m[key] != nil {
				s.Property(key, m[key])
			}
		}
	default:
		t.fail(ErrCodeUnsupported, "unsupported property map %s", ast.Format(props))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// merge matches the pattern or creates it:
//
//	coalesce(<match>[on match], <create>[on create]).as(...)
func (t *translator) merge(m *ast.Merge) {
	part := m.Pattern
	if part.PathVariable != "" {
		t.fail(ErrCodeUnsupported, "path variables are not supported in MERGE")
		return
	}
	for _, n := range part.Nodes {
		if len(n.Labels) > 1 {
			t.fail(ErrCodeMultipleLabels, "Only one label per node is supported: %s", n.Variable)
			return
		}
		if _, bound := t.lookup(n.Variable); bound && (len(n.Labels) > 0 || n.Properties != nil) {
			t.fail(ErrCodeAmbiguousRebinding,
				"Can't create node `%s` with labels or properties here. The variable is already declared in this context", n.Variable)
			return
		}
		if lit, ok := n.Properties.(*ast.MapLiteral); ok {
			for i, v := range lit.Values {
				if l, ok := v.(*ast.Literal); ok && l.Value == nil {
					t.fail(ErrCodeUnsupported, "Cannot merge node using null property value for %s", lit.Keys[i])
					return
				}
			}
		}
	}
	for _, r := range part.Rels {
		switch {
		case r.VariableLength():
			t.fail(ErrCodeUnsupported, "Variable length relationships cannot be used in MERGE")
			return
		case len(r.Types) != 1:
			t.fail(ErrCodeUnsupported, "Exactly one relationship type must be specified for MERGE")
			return
		}
		if _, bound := t.lookup(r.Variable); bound {
			t.fail(ErrCodeAmbiguousRebinding, "Can't create `%s` with properties or labels here. It already exists in this context", r.Variable)
			return
		}
	}

	part = t.nameAnonymous(part)
	if len(part.Nodes) == 1 {
		if _, bound := t.lookup(part.Nodes[0].Variable); bound {
			t.source()
			t.setItems(t.main, m.OnMatch)
			return
		}
	}

	var introduced []string
	for _, name := range part.Variables() {
		if _, bound := t.lookup(name); !bound {
			introduced = append(introduced, name)
		}
	}

	t.source()
	matchBranch := t.mergeMatch(part, m.OnMatch, introduced)
	createBranch := t.mergeCreate(part, m.OnCreate, introduced)
	if t.err != nil {
		return
	}

	types := map[string]ast.Type{}
	for _, n := range part.Nodes {
		types[n.Variable] = ast.TypeNode
	}
	for _, r := range part.Rels {
		types[r.Variable] = ast.TypeRelationship
	}

	if len(introduced) == 1 {
		t.main.Coalesce(matchBranch, createBranch).As(introduced[0])
	} else {
		row := t.env.Fresh(steps.Generated)
		t.main.Coalesce(matchBranch, createBranch).As(row)
		for _, name := range introduced {
			t.main.Select(row).Select(name).As(name)
		}
	}
	for _, name := range introduced {
		t.bind(name, &binding{label: name, typ: types[name]})
	}
}

// nameAnonymous copies part, giving anonymous elements generated names.
func (t *translator) nameAnonymous(part *ast.PatternPart) *ast.PatternPart {
	out := &ast.PatternPart{}
	for _, n := range part.Nodes {
		cp := *n
		if cp.Variable == "" {
			cp.Variable = t.env.Fresh(steps.Unnamed)
		}
		out.Nodes = append(out.Nodes, &cp)
	}
	for _, r := range part.Rels {
		cp := *r
		if cp.Variable == "" {
			cp.Variable = t.env.Fresh(steps.Unnamed)
		}
		out.Rels = append(out.Rels, &cp)
	}
	return out
}

// inlinePredicates turns the inline labels and property map of a MERGE
// element into match predicates.
func inlinePredicates(name string, labels []string, props ast.Expr) []ast.Expr {
	subject := &ast.Variable{Name: name}
	var out []ast.Expr
	for _, l := range labels {
		out = append(out, &ast.HasLabels{Subject: subject, Labels: []string{l}})
	}
	if m, ok := props.(*ast.MapLiteral); ok {
		for i, key := range m.Keys {
			out = append(out, &ast.Binary{Op: ast.OpEq, Left: &ast.Property{Subject: subject, Key: key}, Right: m.Values[i]})
		}
	}
	return out
}

func (t *translator) mergeMatch(part *ast.PatternPart, onMatch []ast.SetItem, introduced []string) steps.Steps {
	matchPart := &ast.PatternPart{}
	for _, n := range part.Nodes {
		cp := &ast.NodePattern{Variable: n.Variable, Properties: n.Properties}
		if _, ok := n.Properties.(*ast.MapLiteral); ok {
			cp.Properties = nil
		}
		cp.Predicates = inlinePredicates(n.Variable, n.Labels, n.Properties)
		matchPart.Nodes = append(matchPart.Nodes, cp)
	}
	for _, r := range part.Rels {
		cp := &ast.RelPattern{Variable: r.Variable, Types: r.Types, Direction: r.Direction, Properties: r.Properties}
		if _, ok := r.Properties.(*ast.MapLiteral); ok {
			cp.Properties = nil
		}
		cp.Predicates = inlinePredicates(r.Variable, nil, r.Properties)
		matchPart.Rels = append(matchPart.Rels, cp)
	}

	s := t.anon()
	state := &patternState{}
	t.patterns(s, []*ast.PatternPart{matchPart}, state)

	saved := t.scope
	t.scope = copyScope(saved)
	defer func() { t.scope = saved }()
	t.bindIntros(state, false)
	t.setItems(s, onMatch)
	t.selectIntroduced(s, introduced, len(part.Nodes) == 1)
	return s
}

func (t *translator) mergeCreate(part *ast.PatternPart, onCreate []ast.SetItem, introduced []string) steps.Steps {
	s := t.anon()
	saved := t.scope
	t.scope = copyScope(saved)
	defer func() { t.scope = saved }()

	for _, n := range part.Nodes {
		if _, bound := t.lookup(n.Variable); bound {
			continue
		}
		label := ""
		if len(n.Labels) == 1 {
			label = n.Labels[0]
		}
		s.AddV(label).As(n.Variable)
		t.writeProperties(s, n.Variable, ast.TypeNode, n.Properties)
		t.bind(n.Variable, &binding{label: n.Variable, typ: ast.TypeNode})
	}
	for i, r := range part.Rels {
		from, to := part.Nodes[i].Variable, part.Nodes[i+1].Variable
		if r.Direction == ast.Incoming {
			from, to = to, from
		}
		fromB, _ := t.lookup(from)
		toB, _ := t.lookup(to)
		s.AddE(r.Types[0]).From(fromB.label).To(toB.label).As(r.Variable)
		t.writeProperties(s, r.Variable, ast.TypeRelationship, r.Properties)
		t.bind(r.Variable, &binding{label: r.Variable, typ: ast.TypeRelationship})
	}
	t.setItems(s, onCreate)
	t.selectIntroduced(s, introduced, len(part.Nodes) == 1)
	return s
}

// selectIntroduced ends a MERGE branch on the value the outer traversal
// labels: the element itself for a single node, else a row map.
func (t *translator) selectIntroduced(s steps.Steps, introduced []string, singleNode bool) {
	if singleNode {
		return
	}
	s.Select(introduced...)
}

func (t *translator) set(x *ast.Set) {
	t.source()
	t.setItems(t.main, x.Items)
}

// setItems appends one side effect per assignment to s.
func (t *translator) setItems(s steps.Steps, items []ast.SetItem) {
	for _, item := range items {
		switch x := item.(type) {
		case *ast.SetProperty:
			label, typ, ok := t.writeTarget(x.Property.Subject)
			if !ok {
				return
			}
			t.setProperty(s, label, typ, x.Property.Key, x.Value)
		case *ast.SetVariable:
			label, typ, ok := t.writeTarget(&ast.Variable{Name: x.Variable})
			if !ok {
				return
			}
			switch v := x.Value.(type) {
			case *ast.MapLiteral:
				t.clearProperties(s, label, x.Merge)
				for i, key := range v.Keys {
					t.setProperty(s, label, typ, key, v.Values[i])
				}
			case *ast.Parameter:
				m, isMap := t.ctx.Params[v.Name].(map[string]any)
				if !isMap {
					t.fail(ErrCodeUnsupported, "property parameter $%s must be bound to a map", v.Name)
					return
				}
				t.clearProperties(s, label, x.Merge)
				for _, key := range sortedKeys(m) {
					t.setProperty(s, label, typ, key, &ast.Literal{Value: m[key]})
				}
			default:
				if same, ok := v.(*ast.Variable); ok && same.Name == x.Variable {
					continue
				}
				switch t.typeOf(v) {
				case ast.TypeAny, ast.TypeMap, ast.TypeNode, ast.TypeRelationship:
				default:
					t.fail(ErrCodeUnsupported, "SET %s needs a map or an element, got %s", x.Variable, ast.Format(v))
					return
				}
				t.clearProperties(s, label, x.Merge)
				s.SideEffect(t.copyProperties(label, v))
			}
		case *ast.SetLabels:
			t.fail(ErrCodeUnsupported, "setting labels is not supported")
			return
		}
	}
}

func (t *translator) remove(x *ast.Remove) {
	t.source()
	for _, item := range x.Items {
		switch r := item.(type) {
		case *ast.RemoveProperty:
			label, _, ok := t.writeTarget(r.Property.Subject)
			if !ok {
				return
			}
			t.main.SideEffect(t.dropProperty(label, r.Property.Key))
		case *ast.RemoveLabels:
			t.fail(ErrCodeUnsupported, "removing labels is not supported")
			return
		}
	}
}

// writeTarget resolves the element a write assigns to.
func (t *translator) writeTarget(e ast.Expr) (string, ast.Type, bool) {
	v, ok := e.(*ast.Variable)
	if !ok {
		t.fail(ErrCodeUnsupported, "cannot write properties of %s", ast.Format(e))
		return "", "", false
	}
	b, ok := t.lookup(v.Name)
	if !ok {
		t.fail(ErrCodeUndefinedVariable, "Variable `%s` not defined", v.Name)
		return "", "", false
	}
	if b.typ != ast.TypeAny && !b.typ.Element() {
		t.fail(ErrCodeUnsupported, "cannot write properties of %s of type %s", v.Name, b.typ)
		return "", "", false
	}
	return b.label, b.typ, true
}

// clearProperties drops every property of label unless the assignment
// merges into the existing ones.
func (t *translator) clearProperties(s steps.Steps, label string, merge bool) {
	if !merge {
		s.SideEffect(t.anon().Select(label).Is(steps.Neq(steps.Null)).Properties().Drop())
	}
}

// copyProperties writes every entry of a map or element onto label. Keys
// are only known at run time, so each entry is written with a traversal key.
// Null map values are skipped.
func (t *translator) copyProperties(label string, from ast.Expr) steps.Steps {
	entry := t.env.Fresh(steps.FreshID)
	src := t.value(from).Is(steps.Neq(steps.Null))
	var key, val steps.Steps
	if typ := t.typeOf(from); typ.Element() {
		src.Properties().As(entry)
		key, val = t.anon().Select(entry).Key(), t.anon().Select(entry).Value()
	} else {
		if typ != ast.TypeMap {
			src.MapFunction(steps.Properties())
		}
		src.Unfold().As(entry).
			Where(t.anon().Select(entry).SelectColumn(steps.ColumnValues).Is(steps.Neq(steps.Null)))
		key = t.anon().Select(entry).SelectColumn(steps.ColumnKeys)
		val = t.anon().Select(entry).SelectColumn(steps.ColumnValues)
	}
	return src.Select(label).Is(steps.Neq(steps.Null)).Property(key, val)
}

func (t *translator) dropProperty(label, key string) steps.Steps {
	return t.anon().Select(label).Is(steps.Neq(steps.Null)).Properties(key).Drop()
}

// setProperty appends the side effect assigning value to label.key. Null
// removes the property; a list on a node becomes a list-cardinality
// property.
func (t *translator) setProperty(s steps.Steps, label string, typ ast.Type, key string, value ast.Expr) {
	v, ok := t.constant(value)
	switch {
	case ok && v == nil:
		s.SideEffect(t.dropProperty(label, key))
	case ok:
		if list, isList := v.([]any); isList && typ == ast.TypeNode {
			s.SideEffect(t.dropProperty(label, key))
			if len(list) > 0 {
				write := t.anon().Select(label).Is(steps.Neq(steps.Null))
				for _, e := range list {
					write.PropertyList(key, e)
				}
				s.SideEffect(write)
			}
			return
		}
		s.SideEffect(t.anon().Select(label).Is(steps.Neq(steps.Null)).Property(key, v))
	default:
		isNull := t.value(value).Is(steps.Eq(steps.Null))
		write := t.anon().Property(key, t.value(value))
		s.SideEffect(t.anon().Select(label).Is(steps.Neq(steps.Null)).
			Choose(isNull, t.anon().Properties(key).Drop(), write))
	}
}

// delete drops relationships first, then nodes, with barriers between the
// phases so every target is resolved before anything is removed. Without
// DETACH, nodes still connected by a relationship outside the statement are
// rejected before the first drop.
func (t *translator) delete(d *ast.Delete) {
	t.source()
	var rels, nodes, mixed []ast.Expr
	for _, target := range d.Targets {
		switch t.typeOf(target) {
		case ast.TypeRelationship:
			rels = append(rels, target)
		case ast.TypeNode:
			nodes = append(nodes, target)
		default:
			mixed = append(mixed, target)
		}
	}

	targets := func(direct []ast.Expr, filter steps.P) steps.Steps {
		var branches []steps.Steps
		for _, e := range direct {
			branches = append(branches, t.value(e))
		}
		for _, e := range mixed {
			branches = append(branches, t.value(e).Unfold().Is(filter))
		}
		var s steps.Steps
		if len(branches) == 1 {
			s = branches[0]
		} else {
			s = t.anon().Union(branches...)
		}
		return s.Is(steps.Neq(steps.Null))
	}

	t.main.Barrier()
	hasNodes := len(nodes)+len(mixed) > 0
	if hasNodes && !d.Detach {
		connected := t.anon().BothE()
		if len(rels)+len(mixed) > 0 {
			doomed := t.env.Fresh(steps.FreshID)
			t.main.SideEffect(targets(rels, steps.IsRelationship()).Aggregate(doomed)).Barrier()
			connected.WherePredicate(steps.Without(doomed))
		}
		check := targets(nodes, steps.IsNode()).
			Where(connected).
			MapFunction(steps.Exception(string(extension.ErrCodeDeleteConnectedNode)))
		t.main.SideEffect(check).Barrier()
	}
	if len(rels)+len(mixed) > 0 {
		t.main.SideEffect(targets(rels, steps.IsRelationship()).Drop()).Barrier()
	}
	if hasNodes {
		t.main.SideEffect(targets(nodes, steps.IsNode()).Drop())
	}

	for _, target := range d.Targets {
		if v, ok := target.(*ast.Variable); ok {
			if b, ok := t.lookup(v.Name); ok {
				cp := *b
				cp.deleted = true
				t.bind(v.Name, &cp)
			}
		}
	}
}

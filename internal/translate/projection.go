package translate

import (
	"math"
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// ret lowers the final RETURN into project(columns).by(...) and returns
// its column table.
func (t *translator) ret(p *ast.Projection) ReturnTable {
	t.source()
	if hasAggregate(p) {
		p = t.aggregate(p)
		if t.err != nil {
			return nil
		}
	}

	columns := make(ReturnTable, len(p.Items))
	names := make([]string, len(p.Items))
	values := make([]steps.Steps, len(p.Items))
	for i, item := range p.Items {
		names[i] = item.Alias
		columns[i] = Column{Name: item.Alias, Type: t.typeOf(item.Expr)}
		values[i] = t.value(item.Expr)
	}
	if t.err != nil {
		return nil
	}
	t.main.Project(names...)
	for _, v := range values {
		t.main.By(v)
	}
	if p.Distinct {
		t.main.Dedup()
	}
	t.orderBy(p.OrderBy)
	t.page(p)
	return columns
}

// with lowers a WITH clause. Only its item aliases stay in scope.
func (t *translator) with(p *ast.Projection) {
	t.source()
	if hasAggregate(p) {
		p = t.aggregate(p)
		if t.err != nil {
			return
		}
	}

	scope := map[string]*binding{}
	if t.rebindsEarlierItem(p) {
		row := t.env.Fresh(steps.Generated)
		names := make([]string, len(p.Items))
		values := make([]steps.Steps, len(p.Items))
		for i, item := range p.Items {
			names[i] = item.Alias
			values[i] = t.value(item.Expr)
			scope[item.Alias] = t.itemBinding(item)
		}
		t.main.Project(names...)
		for _, v := range values {
			t.main.By(v)
		}
		t.main.As(row)
		for _, name := range names {
			t.main.Select(row).Select(name).As(name)
		}
	} else {
		for _, item := range p.Items {
			scope[item.Alias] = t.itemBinding(item)
			if v, ok := item.Expr.(*ast.Variable); ok {
				b, bound := t.lookup(v.Name)
				if !bound {
					t.fail(ErrCodeUndefinedVariable, "Variable `%s` not defined", v.Name)
					return
				}
				if b.varPath {
					t.main.Map(t.relationshipList(b.label)).As(item.Alias)
					continue
				}
				if b.label != item.Alias {
					t.main.Select(b.label).As(item.Alias)
				}
				continue
			}
			t.main.Map(t.value(item.Expr)).As(item.Alias)
		}
	}
	if t.err != nil {
		return
	}
	t.scope = scope

	if p.Distinct {
		names := make([]string, len(p.Items))
		for i, item := range p.Items {
			names[i] = item.Alias
		}
		t.main.Dedup(names...)
	}
	t.orderBy(p.OrderBy)
	t.page(p)
	if p.Where != nil {
		t.main.Where(t.filter(p.Where))
	}
}

// itemBinding is the binding an item alias gets after the projection. A
// plain variable keeps what it knew about the element.
func (t *translator) itemBinding(item *ast.ProjectionItem) *binding {
	if v, ok := item.Expr.(*ast.Variable); ok {
		if b, ok := t.lookup(v.Name); ok {
			cp := *b
			cp.label = item.Alias
			cp.varPath = false
			return &cp
		}
	}
	return &binding{label: item.Alias, typ: t.typeOf(item.Expr), nullable: true}
}

// rebindsEarlierItem reports whether an item reads a name that an earlier
// item of the same projection rebinds. Labelling items one by one would
// then read the new value.
func (t *translator) rebindsEarlierItem(p *ast.Projection) bool {
	rebound := map[string]bool{}
	for _, item := range p.Items {
		for _, name := range ast.FreeVariables(item.Expr) {
			if rebound[name] {
				return true
			}
		}
		if v, ok := item.Expr.(*ast.Variable); ok {
			if b, ok := t.lookup(v.Name); ok && b.label == item.Alias {
				continue
			}
		}
		rebound[item.Alias] = true
	}
	return false
}

func (t *translator) orderBy(items []*ast.SortItem) {
	if len(items) == 0 {
		return
	}
	t.main.Order()
	for _, s := range items {
		v, ok := s.Expr.(*ast.Variable)
		if !ok {
			t.fail(ErrCodeUnsupported, "ORDER BY %s must name a projected column", ast.Format(s.Expr))
			return
		}
		order := steps.OrderAsc
		if s.Descending {
			order = steps.OrderDesc
		}
		t.main.ByOrder(t.anon().Select(v.Name), order)
	}
}

func (t *translator) page(p *ast.Projection) {
	if p.Skip != nil {
		if n, ok := t.count("SKIP", p.Skip); ok {
			t.main.Skip(n)
		}
	}
	if p.Limit != nil {
		if n, ok := t.count("LIMIT", p.Limit); ok {
			t.main.Limit(n)
		}
	}
}

// count resolves a SKIP or LIMIT operand to a constant.
func (t *translator) count(clause string, e ast.Expr) (int64, bool) {
	var v any
	switch x := e.(type) {
	case *ast.Literal:
		v = x.Value
	case *ast.Parameter:
		p, ok := t.ctx.Params[x.Name]
		if !ok {
			t.fail(ErrCodeUnsupported, "%s parameter $%s has no value", clause, x.Name)
			return 0, false
		}
		v = p
	default:
		t.fail(ErrCodeUnsupported, "%s requires a literal or parameter, got %s", clause, ast.Format(e))
		return 0, false
	}
	n, ok := integral(v)
	if !ok || n < 0 {
		t.fail(ErrCodeUnsupported, "Invalid input. '%v' is not a valid value. Must be a non-negative integer.", v)
		return 0, false
	}
	return n, true
}

func integral(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	}
	return 0, false
}

func hasAggregate(p *ast.Projection) bool {
	for _, item := range p.Items {
		if ast.ContainsAggregate(item.Expr) {
			return true
		}
	}
	return false
}

// aggregate is one aggregate call of a projection.
type aggregate struct {
	name string // fresh column
	call ast.Expr
	arg  string // fresh column holding the argument, empty for count(*)
	typ  ast.Type
}

// groupKey is one grouping expression of a projection.
type groupKey struct {
	name string
	expr ast.Expr
}

// aggregate emits the grouping for p and returns p rewritten to read the
// grouped columns:
//
//	project(keys..., args...)
//	  .group().by(keys).by(fold()).unfold()
//	  .project(keys..., aggregates...)
//
// or fold().project(aggregates...) when nothing is grouped. The columns are
// then rebound as labels.
func (t *translator) aggregate(p *ast.Projection) *ast.Projection {
	var (
		keys   []groupKey
		aggs   []*aggregate
		byText = map[string]*aggregate{}
		keyFor = map[string]string{}
	)
	for _, item := range p.Items {
		if ast.ContainsAggregate(item.Expr) {
			continue
		}
		text := ast.Format(item.Expr)
		if _, ok := keyFor[text]; ok {
			continue
		}
		k := groupKey{name: t.env.Fresh(steps.FreshID), expr: item.Expr}
		keyFor[text] = k.name
		keys = append(keys, k)
	}

	items := make([]*ast.ProjectionItem, len(p.Items))
	for i, item := range p.Items {
		if !ast.ContainsAggregate(item.Expr) {
			items[i] = &ast.ProjectionItem{Expr: &ast.Variable{Name: keyFor[ast.Format(item.Expr)]}, Alias: item.Alias}
			continue
		}
		expr := ast.Rewrite(item.Expr, func(e ast.Expr) ast.Expr {
			if !ast.IsAggregate(e) {
				return e
			}
			text := ast.Format(e)
			a, ok := byText[text]
			if !ok {
				a = &aggregate{name: t.env.Fresh(steps.FreshID), call: e, typ: t.typeOf(e)}
				if _, star := e.(*ast.CountStar); !star {
					a.arg = t.env.Fresh(steps.FreshID)
				}
				byText[text] = a
				aggs = append(aggs, a)
			}
			return &ast.Variable{Name: a.name}
		})
		expr = ast.Rewrite(expr, func(e ast.Expr) ast.Expr {
			if name, ok := keyFor[ast.Format(e)]; ok {
				return &ast.Variable{Name: name}
			}
			return e
		})
		items[i] = &ast.ProjectionItem{Expr: expr, Alias: item.Alias}
	}

	// Rows as maps of keys and aggregate arguments.
	var columns []string
	var values []steps.Steps
	for _, k := range keys {
		columns = append(columns, k.name)
		values = append(values, t.value(k.expr))
	}
	for _, a := range aggs {
		if a.arg == "" {
			continue
		}
		call := a.call.(*ast.FunctionCall)
		if len(call.Args) == 0 {
			t.fail(ErrCodeUnsupported, "%s requires an argument", call.Name)
			return p
		}
		columns = append(columns, a.arg)
		values = append(values, t.value(call.Args[0]))
	}
	if len(columns) > 0 {
		t.main.Project(columns...)
		for _, v := range values {
			t.main.By(v)
		}
	}

	var outNames []string
	var outValues []steps.Steps
	rows := func() steps.Steps {
		if len(keys) == 0 {
			return t.anon().Unfold()
		}
		return t.anon().SelectColumn(steps.ColumnValues).Unfold()
	}
	for _, k := range keys {
		outNames = append(outNames, k.name)
		v := t.anon().SelectColumn(steps.ColumnKeys)
		if len(keys) > 1 {
			v.Select(k.name)
		}
		outValues = append(outValues, v)
	}
	for _, a := range aggs {
		outNames = append(outNames, a.name)
		outValues = append(outValues, t.reduce(a, rows))
	}
	if t.err != nil {
		return p
	}

	if len(keys) == 0 {
		t.main.Fold()
	} else {
		by := t.anon()
		if len(keys) == 1 {
			by.Select(keys[0].name)
		} else {
			names := make([]string, len(keys))
			for i, k := range keys {
				names[i] = k.name
			}
			by.Select(names...)
		}
		t.main.Group().By(by).By(t.anon().Fold()).Unfold()
	}
	t.main.Project(outNames...)
	for _, v := range outValues {
		t.main.By(v)
	}

	row := t.env.Fresh(steps.Generated)
	t.main.As(row)
	scope := map[string]*binding{}
	for _, k := range keys {
		t.main.Select(row).Select(k.name).As(k.name)
		b := &binding{label: k.name, typ: t.typeOf(k.expr), nullable: true}
		if v, ok := k.expr.(*ast.Variable); ok {
			if prev, ok := t.lookup(v.Name); ok {
				cp := *prev
				cp.label = k.name
				b = &cp
			}
		}
		scope[k.name] = b
	}
	for _, a := range aggs {
		t.main.Select(row).Select(a.name).As(a.name)
		scope[a.name] = &binding{label: a.name, typ: a.typ, nullable: true}
	}
	t.scope = scope

	out := *p
	out.Items = items
	return &out
}

// reduce lowers one aggregate over the grouped rows of a traverser.
func (t *translator) reduce(a *aggregate, rows func() steps.Steps) steps.Steps {
	if _, star := a.call.(*ast.CountStar); star {
		return rows().Count()
	}
	call := a.call.(*ast.FunctionCall)
	input := func() steps.Steps {
		s := rows().Select(a.arg).Is(steps.Neq(steps.Null))
		if call.Distinct {
			s.Dedup()
		}
		return s
	}
	orNull := func(s steps.Steps, fallback any) steps.Steps {
		return t.anon().Coalesce(s, t.anon().Constant(fallback))
	}

	switch name := strings.ToLower(call.Name); name {
	case "count":
		return input().Count()
	case "sum":
		return orNull(input().Sum(), int64(0))
	case "avg":
		return orNull(input().Mean(), steps.Null)
	case "min":
		return orNull(input().Min(), steps.Null)
	case "max":
		return orNull(input().Max(), steps.Null)
	case "collect":
		return input().Fold()
	case "percentilecont", "percentiledisc":
		if len(call.Args) != 2 {
			t.fail(ErrCodeUnsupported, "%s expects 2 arguments", call.Name)
			return t.anon()
		}
		pct, ok := t.constant(call.Args[1])
		if !ok {
			t.fail(ErrCodeUnsupported, "%s requires a constant percentile", call.Name)
			return t.anon()
		}
		fn := steps.PercentileCont()
		if name == "percentiledisc" {
			fn = steps.PercentileDisc()
		}
		return t.anon().
			Project("values", "percentile").
			By(input().Fold()).
			By(t.anon().Constant(nullSentinel(pct))).
			SelectColumn(steps.ColumnValues).
			MapFunction(fn)
	}
	t.fail(ErrCodeUnsupported, "aggregate function %s is not supported", call.Name)
	return t.anon()
}

func (t *translator) unwind(u *ast.Unwind) {
	if !t.started {
		if items, ok := t.constantList(u.Source); ok {
			var typ ast.Type
			for i, v := range items {
				typ = typ.Join(valueType(v))
				items[i] = nullSentinel(v)
			}
			t.main.Inject(items...).As(u.Alias)
			t.started = true
			t.bind(u.Alias, &binding{label: u.Alias, typ: orAny(typ), nullable: typ == ast.TypeNull})
			return
		}
	}
	t.source()
	t.main.FlatMap(t.value(u.Source).Is(steps.Neq(steps.Null)).Unfold()).As(u.Alias)
	t.bind(u.Alias, &binding{label: u.Alias, typ: ast.TypeAny, nullable: true})
}

// constantList evaluates a literal list or a range() over literals.
func (t *translator) constantList(e ast.Expr) ([]any, bool) {
	switch x := e.(type) {
	case *ast.ListLiteral:
		if !ast.IsConstant(x) {
			return nil, false
		}
		v, ok := t.constant(x)
		if !ok {
			return nil, false
		}
		list, ok := v.([]any)
		return list, ok
	case *ast.FunctionCall:
		if strings.ToLower(x.Name) != "range" {
			return nil, false
		}
		bounds, ok := literalInts(x.Args)
		if !ok {
			return nil, false
		}
		list, err := rangeValues(bounds)
		if err != nil {
			t.fail(ErrCodeInvalidRange, "%s", err.Error())
			return []any{}, true
		}
		return list, true
	}
	return nil, false
}

func orAny(typ ast.Type) ast.Type {
	if typ == "" {
		return ast.TypeAny
	}
	return typ
}

// returnBindings projects the bindings a trailing CALL yields.
func (t *translator) returnBindings(cols ReturnTable) ReturnTable {
	if len(cols) == 0 {
		return nil
	}
	t.main.Project(cols.Names()...)
	for _, c := range cols {
		b, _ := t.lookup(c.Name)
		t.main.By(t.anon().Select(b.label))
	}
	return cols
}

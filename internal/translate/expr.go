package translate

import (
	"math"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/extension"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// nullSentinel replaces a top-level nil with the null sentinel.
func nullSentinel(v any) any {
	if v == nil {
		return steps.Null
	}
	return v
}

// constant evaluates e when it is built only from literals and parameters.
// A null result is returned as nil; nulls nested in lists and maps become
// the sentinel.
func (t *translator) constant(e ast.Expr) (any, bool) {
	switch x := e.(type) {
	case *ast.Literal:
		return x.Value, true
	case *ast.Parameter:
		if v, ok := t.ctx.Params[x.Name]; ok && v == nil {
			return nil, true
		}
		return steps.Param{Name: x.Name, Value: t.ctx.Params[x.Name]}, true
	case *ast.ListLiteral:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			v, ok := t.constant(item)
			if !ok {
				return nil, false
			}
			out[i] = nullSentinel(v)
		}
		return out, true
	case *ast.MapLiteral:
		out := make(map[string]any, len(x.Keys))
		for i, k := range x.Keys {
			v, ok := t.constant(x.Values[i])
			if !ok {
				return nil, false
			}
			out[k] = nullSentinel(v)
		}
		return out, true
	case *ast.Unary:
		if x.Op == ast.OpNeg {
			if lit, ok := x.Operand.(*ast.Literal); ok {
				switch n := lit.Value.(type) {
				case int64:
					return -n, true
				case float64:
					return -n, true
				}
			}
		}
	}
	return nil, false
}

func (t *translator) null() steps.Steps {
	return t.anon().Constant(steps.Null)
}

// relationshipList reads every relationship a variable-length pattern
// stored under label, in path order. A zero-hop match stored none.
func (t *translator) relationshipList(label string) steps.Steps {
	return t.anon().Coalesce(t.anon().SelectPop(steps.PopAll, label), t.anon().Constant([]any{}))
}

func (t *translator) boolean(v bool) steps.Steps {
	return t.anon().Constant(v)
}

// test yields true when p holds for the traverser, else false.
func (t *translator) test(p steps.P) steps.Steps {
	return t.anon().ChoosePredicate(p, t.boolean(true), t.boolean(false))
}

// nonNull applies then to a non-null value of v and yields null otherwise.
func (t *translator) nonNull(v, then steps.Steps) steps.Steps {
	return v.ChoosePredicate(steps.Neq(steps.Null), then, t.null())
}

// values starts a traversal over the values of a projected map.
func (t *translator) values() steps.Steps {
	return t.anon().SelectColumn(steps.ColumnValues).Unfold()
}

// pair projects two operands as the map {a, b}.
func (t *translator) pair(a, b ast.Expr) steps.Steps {
	return t.anon().Project("a", "b").By(t.value(a)).By(t.value(b))
}

// list yields the values of exprs as one list.
func (t *translator) list(exprs []ast.Expr) steps.Steps {
	if v, ok := t.constant(&ast.ListLiteral{Items: exprs}); ok {
		return t.anon().Constant(v)
	}
	names := make([]string, len(exprs))
	values := make([]steps.Steps, len(exprs))
	for i, e := range exprs {
		names[i] = t.env.Fresh(steps.FreshID)
		values[i] = t.value(e)
	}
	s := t.anon().Project(names...)
	for _, v := range values {
		s.By(v)
	}
	return s.SelectColumn(steps.ColumnValues)
}

// value lowers e to a traversal yielding exactly one value per input
// traverser, with the null sentinel for null.
func (t *translator) value(e ast.Expr) steps.Steps {
	if v, ok := t.constant(e); ok {
		return t.anon().Constant(nullSentinel(v))
	}
	switch x := e.(type) {
	case *ast.ListLiteral:
		return t.list(x.Items)
	case *ast.MapLiteral:
		values := make([]steps.Steps, len(x.Values))
		for i, v := range x.Values {
			values[i] = t.value(v)
		}
		s := t.anon().Project(x.Keys...)
		for _, v := range values {
			s.By(v)
		}
		return s
	case *ast.Variable:
		b, ok := t.lookup(x.Name)
		if !ok {
			t.fail(ErrCodeUndefinedVariable, "Variable `%s` not defined", x.Name)
			return t.null()
		}
		if b.varPath {
			return t.relationshipList(b.label)
		}
		return t.anon().Select(b.label)
	case *ast.Property:
		return t.property(x)
	case *ast.Binary:
		return t.binary(x)
	case *ast.Unary:
		return t.unary(x)
	case *ast.IsNull:
		yes, no := t.boolean(!x.Negated), t.boolean(x.Negated)
		return t.value(x.Operand).ChoosePredicate(steps.Eq(steps.Null), yes, no)
	case *ast.HasLabels:
		if guard, deleted := t.deletedAccess(x.Subject); deleted {
			return guard
		}
		has := t.anon()
		for _, l := range x.Labels {
			has.HasLabel(l)
		}
		return t.nonNull(t.value(x.Subject), t.anon().Choose(has, t.boolean(true), t.boolean(false)))
	case *ast.FunctionCall:
		return t.function(x)
	case *ast.CountStar:
		t.fail(ErrCodeUnsupported, "Invalid use of aggregating function count(*) in this context")
		return t.null()
	case *ast.Index:
		if !t.ctx.Flavor.CustomFunctions {
			if k, ok := x.Index.(*ast.Literal); ok {
				if key, ok := k.Value.(string); ok {
					return t.property(&ast.Property{Subject: x.Subject, Key: key})
				}
			}
		}
		return t.list([]ast.Expr{x.Subject, x.Index}).MapFunction(steps.ContainerIndex())
	case *ast.Slice:
		from, to := x.From, x.To
		if from == nil {
			from = ast.Null()
		}
		if to == nil {
			to = ast.Null()
		}
		return t.list([]ast.Expr{x.Subject, from, to}).MapFunction(steps.ListSlice())
	case *ast.Case:
		return t.caseExpr(x)
	case *ast.ListComprehension:
		return t.comprehension(x)
	}
	t.fail(ErrCodeUnsupported, "unsupported expression %s", ast.Format(e))
	return t.null()
}

// deletedAccess guards reads of an element deleted earlier in the query.
func (t *translator) deletedAccess(subject ast.Expr) (steps.Steps, bool) {
	v, ok := subject.(*ast.Variable)
	if !ok {
		return nil, false
	}
	b, ok := t.lookup(v.Name)
	if !ok || !b.deleted {
		return nil, false
	}
	raise := t.anon().MapFunction(steps.Exception(string(extension.ErrCodeDeletedElementAccess)))
	return t.nonNull(t.anon().Select(b.label), raise), true
}

func (t *translator) property(x *ast.Property) steps.Steps {
	if guard, deleted := t.deletedAccess(x.Subject); deleted {
		return guard
	}
	typ := t.typeOf(x.Subject)
	if v, ok := x.Subject.(*ast.Variable); ok && typ.Element() {
		if b, ok := t.lookup(v.Name); ok && !b.nullable {
			return t.anon().Select(b.label).Coalesce(t.anon().Values(x.Key), t.null())
		}
	}
	switch {
	case typ.Element():
		return t.nonNull(t.value(x.Subject), t.anon().Coalesce(t.anon().Values(x.Key), t.null()))
	case typ == ast.TypeMap:
		return t.nonNull(t.value(x.Subject), t.anon().Coalesce(t.anon().Select(x.Key), t.null()))
	case t.ctx.Flavor.CustomFunctions:
		return t.list([]ast.Expr{x.Subject, &ast.Literal{Value: x.Key}}).MapFunction(steps.ContainerIndex())
	}
	return t.nonNull(t.value(x.Subject), t.anon().Coalesce(t.anon().Values(x.Key), t.null()))
}

func (t *translator) unary(x *ast.Unary) steps.Steps {
	switch x.Op {
	case ast.OpNot:
		flip := t.anon().ChoosePredicate(steps.Eq(true), t.boolean(false), t.boolean(true))
		return t.value(x.Operand).ChoosePredicate(steps.Eq(steps.Null), t.null(), flip)
	case ast.OpNeg:
		return t.nonNull(t.value(x.Operand), t.anon().Math("-_"))
	}
	return t.value(x.Operand)
}

func (t *translator) binary(x *ast.Binary) steps.Steps {
	switch {
	case x.Op.IsArithmetic():
		return t.arithmetic(x)
	case x.Op.IsComparison():
		return t.comparison(x)
	case x.Op.IsBoolean():
		return t.logic(x)
	case x.Op.IsStringPredicate(), x.Op == ast.OpRegex:
		return t.stringPredicate(x)
	case x.Op == ast.OpIn:
		return t.in(x)
	}
	t.fail(ErrCodeUnsupported, "unsupported operator %s", x.Op)
	return t.null()
}

var mathOperators = map[ast.Operator]string{
	ast.OpAdd: "a + b",
	ast.OpSub: "a - b",
	ast.OpMul: "a * b",
	ast.OpDiv: "a / b",
	ast.OpMod: "a % b",
	ast.OpPow: "a ^ b",
}

// arithmetic lowers + - * / % ^. Numbers use math() over the projected
// operands; + on anything that may be a string or list goes through
// cypherPlus.
func (t *translator) arithmetic(x *ast.Binary) steps.Steps {
	if v, ok := foldArithmetic(x); ok {
		return t.anon().Constant(nullSentinel(v))
	}
	l, r := t.typeOf(x.Left), t.typeOf(x.Right)
	if l == ast.TypeNull || r == ast.TypeNull {
		return t.null()
	}
	if x.Op == ast.OpAdd && !(l.Numeric() && r.Numeric()) {
		if t.ctx.Flavor.CustomFunctions || l == ast.TypeString || r == ast.TypeString || l == ast.TypeList || r == ast.TypeList {
			return t.list([]ast.Expr{x.Left, x.Right}).MapFunction(steps.Plus())
		}
	}

	expr := mathOperators[x.Op]
	integer := l == ast.TypeInteger && r == ast.TypeInteger
	if integer && x.Op == ast.OpDiv {
		expr = "(a - a % b) / b"
	}
	compute := t.anon().Math(expr)
	if integer && (x.Op == ast.OpDiv || x.Op == ast.OpMod) && t.ctx.Flavor.CustomFunctions {
		compute = t.anon().Choose(
			t.anon().Select("b").Is(steps.Eq(int64(0))),
			t.anon().MapFunction(steps.Exception(string(extension.ErrCodeDivisionByZero))),
			compute)
	}
	anyNull := t.values().Is(steps.Eq(steps.Null))
	return t.pair(x.Left, x.Right).Choose(anyNull, t.null(), compute)
}

// foldArithmetic evaluates arithmetic over numeric and string literals.
// Integer division by zero is left to run time.
func foldArithmetic(x *ast.Binary) (any, bool) {
	ll, lok := x.Left.(*ast.Literal)
	rl, rok := x.Right.(*ast.Literal)
	if !lok || !rok {
		return nil, false
	}
	if ll.Value == nil || rl.Value == nil {
		return nil, true
	}
	if ls, ok := ll.Value.(string); ok && x.Op == ast.OpAdd {
		if rs, ok := rl.Value.(string); ok {
			return ls + rs, true
		}
		return nil, false
	}
	li, lint := ll.Value.(int64)
	ri, rint := rl.Value.(int64)
	if lint && rint {
		switch x.Op {
		case ast.OpAdd:
			return li + ri, true
		case ast.OpSub:
			return li - ri, true
		case ast.OpMul:
			return li * ri, true
		case ast.OpDiv:
			if ri != 0 {
				return li / ri, true
			}
		case ast.OpMod:
			if ri != 0 {
				return li % ri, true
			}
		case ast.OpPow:
			return math.Pow(float64(li), float64(ri)), true
		}
		return nil, false
	}
	lf, lnum := toFloat(ll.Value)
	rf, rnum := toFloat(rl.Value)
	if !lnum || !rnum {
		return nil, false
	}
	switch x.Op {
	case ast.OpAdd:
		return lf + rf, true
	case ast.OpSub:
		return lf - rf, true
	case ast.OpMul:
		return lf * rf, true
	case ast.OpDiv:
		return lf / rf, true
	case ast.OpMod:
		return math.Mod(lf, rf), true
	case ast.OpPow:
		return math.Pow(lf, rf), true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// comparisonPredicate maps a comparison operator onto its predicate.
func comparisonPredicate(op ast.Operator, v any) steps.P {
	switch op {
	case ast.OpNeq:
		return steps.Neq(v)
	case ast.OpLt:
		return steps.Lt(v)
	case ast.OpLte:
		return steps.Lte(v)
	case ast.OpGt:
		return steps.Gt(v)
	case ast.OpGte:
		return steps.Gte(v)
	}
	return steps.Eq(v)
}

// mirror swaps the operands of a comparison: a < b is b > a.
func mirror(op ast.Operator) ast.Operator {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLte:
		return ast.OpGte
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGte:
		return ast.OpLte
	}
	return op
}

func (t *translator) comparison(x *ast.Binary) steps.Steps {
	subject, op := x.Left, x.Op
	c, ok := t.constant(x.Right)
	if !ok {
		if c, ok = t.constant(x.Left); ok {
			subject, op = x.Right, mirror(x.Op)
		}
	}
	if ok {
		if c == nil {
			return t.null()
		}
		return t.value(subject).ChoosePredicate(steps.Eq(steps.Null), t.null(), t.test(comparisonPredicate(op, c)))
	}

	decide := t.anon().Choose(t.anon().WhereKey("a", comparisonPredicate(op, "b")), t.boolean(true), t.boolean(false))
	anyNull := t.values().Is(steps.Eq(steps.Null))
	return t.pair(x.Left, x.Right).Choose(anyNull, t.null(), decide)
}

// logic lowers AND, OR and XOR with three-valued semantics by deciding on
// the projected operand values.
func (t *translator) logic(x *ast.Binary) steps.Steps {
	operands := t.pair(x.Left, x.Right)
	anyIs := func(v any) steps.Steps { return t.values().Is(steps.Eq(v)) }
	switch x.Op {
	case ast.OpAnd:
		return operands.Choose(anyIs(false), t.boolean(false),
			t.anon().Choose(anyIs(steps.Null), t.null(), t.boolean(true)))
	case ast.OpOr:
		return operands.Choose(anyIs(true), t.boolean(true),
			t.anon().Choose(anyIs(steps.Null), t.null(), t.boolean(false)))
	}
	differ := t.anon().Choose(t.anon().WhereKey("a", steps.Neq("b")), t.boolean(true), t.boolean(false))
	return operands.Choose(anyIs(steps.Null), t.null(), differ)
}

// stringPredicate lowers STARTS WITH, ENDS WITH, CONTAINS and =~, which
// take a constant right-hand side.
func (t *translator) stringPredicate(x *ast.Binary) steps.Steps {
	c, ok := t.constant(x.Right)
	if !ok {
		t.fail(ErrCodeUnsupported, "%s requires a literal or parameter right-hand side", x.Op)
		return t.null()
	}
	if c == nil {
		return t.null()
	}
	var p steps.P
	switch x.Op {
	case ast.OpStartsWith:
		p = steps.StartingWith(c)
	case ast.OpEndsWith:
		p = steps.EndingWith(c)
	case ast.OpContains:
		p = steps.Containing(c)
	default:
		p = steps.Regex(c)
	}
	return t.value(x.Left).ChoosePredicate(steps.Eq(steps.Null), t.null(), t.test(p))
}

func (t *translator) in(x *ast.Binary) steps.Steps {
	if c, ok := t.constant(x.Right); ok {
		if c == nil {
			return t.null()
		}
		if list, ok := listValue(c); ok {
			return t.inList(x.Left, list)
		}
	}

	list, item := t.env.Fresh(steps.FreshID), t.env.Fresh(steps.FreshID)
	ifNull := func(label string) steps.Steps { return t.anon().Select(label).Is(steps.Eq(steps.Null)) }
	found := t.anon().Select(list).Unfold().WherePredicate(steps.Eq(item))
	hasNull := t.anon().Select(list).Unfold().Is(steps.Eq(steps.Null))
	empty := t.anon().Select(list).CountLocal().Is(steps.Eq(int64(0)))

	notFound := t.anon().Choose(hasNull, t.null(), t.boolean(false))
	search := t.anon().Choose(found, t.boolean(true), notFound)
	nullItem := t.anon().Choose(ifNull(item), t.null(), search)
	nonEmpty := t.anon().Choose(empty, t.boolean(false), nullItem)
	return t.anon().
		Map(t.value(x.Right)).As(list).
		Map(t.value(x.Left)).As(item).
		Choose(ifNull(list), t.null(), nonEmpty)
}

// listValue returns the items of a constant list value. Parameters count
// when their value is known.
func listValue(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case steps.Param:
		list, ok := x.Value.([]any)
		return list, ok
	}
	return nil, false
}

func (t *translator) inList(subject ast.Expr, list []any) steps.Steps {
	if len(list) == 0 {
		return t.boolean(false)
	}
	var items []any
	hasNull := false
	for _, v := range list {
		if v == nil || v == steps.Null {
			hasNull = true
			continue
		}
		items = append(items, v)
	}
	missing := t.boolean(false)
	if hasNull {
		missing = t.null()
	}
	if len(items) == 0 {
		return t.value(subject).ChoosePredicate(steps.Eq(steps.Null), t.null(), missing)
	}
	search := t.anon().ChoosePredicate(steps.Within(items...), t.boolean(true), missing)
	return t.value(subject).ChoosePredicate(steps.Eq(steps.Null), t.null(), search)
}

// caseExpr lowers CASE to nested choose() steps, last arm innermost.
func (t *translator) caseExpr(x *ast.Case) steps.Steps {
	var out steps.Steps
	if x.Else != nil {
		out = t.value(x.Else)
	} else {
		out = t.null()
	}
	for i := len(x.Whens) - 1; i >= 0; i-- {
		w := x.Whens[i]
		cond := w.When
		if x.Subject != nil {
			cond = &ast.Binary{Op: ast.OpEq, Left: x.Subject, Right: w.When}
		}
		out = t.anon().Choose(t.value(cond).Is(steps.Eq(true)), t.value(w.Then), out)
	}
	return out
}

// comprehension lowers [v IN source WHERE pred | projection] by unfolding
// the source inside map() and folding the kept values back.
func (t *translator) comprehension(x *ast.ListComprehension) steps.Steps {
	label := t.env.Fresh(steps.FreshID)
	source := t.value(x.Source)

	saved := t.scope
	t.scope = copyScope(saved)
	t.bind(x.Variable, &binding{label: label, typ: ast.TypeAny, nullable: true})
	body := t.anon().Unfold().As(label)
	if x.Where != nil {
		body.Where(t.filter(x.Where))
	}
	if x.Projection != nil {
		body.Map(t.value(x.Projection))
	}
	body.Fold()
	t.scope = saved

	return source.ChoosePredicate(steps.Eq(steps.Null), t.null(), t.anon().Map(body))
}

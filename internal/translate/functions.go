package translate

import (
	"errors"
	"math"
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/extension"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// function describes a scalar function the translator lowers. A result of
// "" means the type depends on the arguments.
type function struct {
	result   ast.Type
	min, max int // argument count; max -1 is variadic
}

var functions = map[string]function{
	"tostring":      {result: ast.TypeString, min: 1, max: 1},
	"toboolean":     {result: ast.TypeBoolean, min: 1, max: 1},
	"tointeger":     {result: ast.TypeInteger, min: 1, max: 1},
	"tofloat":       {result: ast.TypeFloat, min: 1, max: 1},
	"type":          {result: ast.TypeString, min: 1, max: 1},
	"labels":        {result: ast.TypeList, min: 1, max: 1},
	"id":            {result: ast.TypeAny, min: 1, max: 1},
	"keys":          {result: ast.TypeList, min: 1, max: 1},
	"properties":    {result: ast.TypeMap, min: 1, max: 1},
	"exists":        {result: ast.TypeBoolean, min: 1, max: 1},
	"coalesce":      {min: 1, max: -1},
	"size":          {result: ast.TypeInteger, min: 1, max: 1},
	"length":        {result: ast.TypeInteger, min: 1, max: 1},
	"head":          {result: ast.TypeAny, min: 1, max: 1},
	"last":          {result: ast.TypeAny, min: 1, max: 1},
	"tail":          {result: ast.TypeList, min: 1, max: 1},
	"range":         {result: ast.TypeList, min: 2, max: 3},
	"nodes":         {result: ast.TypeList, min: 1, max: 1},
	"relationships": {result: ast.TypeList, min: 1, max: 1},
	"startnode":     {result: ast.TypeNode, min: 1, max: 1},
	"endnode":       {result: ast.TypeNode, min: 1, max: 1},
	"abs":           {min: 1, max: 1},
	"ceil":          {result: ast.TypeFloat, min: 1, max: 1},
	"floor":         {result: ast.TypeFloat, min: 1, max: 1},
	"round":         {result: ast.TypeFloat, min: 1, max: 1},
	"sign":          {result: ast.TypeInteger, min: 1, max: 1},
	"sqrt":          {result: ast.TypeFloat, min: 1, max: 1},
	"exp":           {result: ast.TypeFloat, min: 1, max: 1},
	"log":           {result: ast.TypeFloat, min: 1, max: 1},
	"log10":         {result: ast.TypeFloat, min: 1, max: 1},
	"sin":           {result: ast.TypeFloat, min: 1, max: 1},
	"cos":           {result: ast.TypeFloat, min: 1, max: 1},
	"tan":           {result: ast.TypeFloat, min: 1, max: 1},
	"asin":          {result: ast.TypeFloat, min: 1, max: 1},
	"acos":          {result: ast.TypeFloat, min: 1, max: 1},
	"atan":          {result: ast.TypeFloat, min: 1, max: 1},
	"pi":            {result: ast.TypeFloat},
	"e":             {result: ast.TypeFloat},
}

// mathFunctions maps numeric functions onto math() expressions over _.
var mathFunctions = map[string]string{
	"abs":   "abs(_)",
	"ceil":  "ceil(_)",
	"floor": "floor(_)",
	"round": "floor(_ + 0.5)",
	"sign":  "signum(_)",
	"sqrt":  "sqrt(_)",
	"exp":   "exp(_)",
	"log":   "log(_)",
	"log10": "log10(_)",
	"sin":   "sin(_)",
	"cos":   "cos(_)",
	"tan":   "tan(_)",
	"asin":  "asin(_)",
	"acos":  "acos(_)",
	"atan":  "atan(_)",
}

var casts = map[string]func() steps.Function{
	"tostring":  steps.ToString,
	"toboolean": steps.ToBoolean,
	"tointeger": steps.ToInteger,
	"tofloat":   steps.ToFloat,
}

func (t *translator) function(f *ast.FunctionCall) steps.Steps {
	name := strings.ToLower(f.Name)
	if ast.IsAggregateFunction(name) {
		t.fail(ErrCodeUnsupported, "Invalid use of aggregating function %s(...) in this context", f.Name)
		return t.null()
	}
	if ast.IsNondeterministicFunction(name) {
		t.fail(ErrCodeUnsupported, "function %s() is not supported", f.Name)
		return t.null()
	}
	fn, ok := functions[name]
	if !ok {
		t.fail(ErrCodeUnknownFunction, "Unknown function '%s'", f.Name)
		return t.null()
	}
	if len(f.Args) < fn.min || (fn.max >= 0 && len(f.Args) > fn.max) {
		t.fail(ErrCodeUnsupported, "Wrong number of arguments for function %s(): %d", f.Name, len(f.Args))
		return t.null()
	}
	if f.Distinct {
		t.fail(ErrCodeUnsupported, "DISTINCT is only valid on aggregating functions: %s", f.Name)
		return t.null()
	}

	args := f.Args
	if cast, ok := casts[name]; ok {
		return t.value(args[0]).MapFunction(cast())
	}
	if expr, ok := mathFunctions[name]; ok {
		return t.nonNull(t.value(args[0]), t.anon().Math(expr))
	}

	switch name {
	case "type":
		return t.nonNull(t.elementValue(args[0]), t.anon().Label())
	case "labels":
		return t.nonNull(t.elementValue(args[0]), t.anon().Map(t.anon().Label().Is(steps.Neq("vertex")).Fold()))
	case "id":
		return t.nonNull(t.value(args[0]), t.anon().Id())
	case "keys":
		typ := t.typeOf(args[0])
		switch {
		case typ == ast.TypeMap:
			return t.nonNull(t.value(args[0]), t.anon().SelectColumn(steps.ColumnKeys))
		case typ.Element() || !t.ctx.Flavor.CustomFunctions:
			return t.nonNull(t.elementValue(args[0]), t.anon().Map(t.anon().Properties().Key().Dedup().Fold()))
		}
		return t.nonNull(t.value(args[0]), t.anon().MapFunction(steps.Properties()).SelectColumn(steps.ColumnKeys))
	case "properties":
		return t.elementValue(args[0]).MapFunction(steps.Properties())
	case "exists":
		if _, ok := args[0].(*ast.Property); !ok {
			t.fail(ErrCodeUnsupported, "exists() requires a property argument")
			return t.null()
		}
		return t.value(args[0]).ChoosePredicate(steps.Neq(steps.Null), t.boolean(true), t.boolean(false))
	case "coalesce":
		branches := make([]steps.Steps, 0, len(args)+1)
		for _, a := range args {
			branches = append(branches, t.value(a).Is(steps.Neq(steps.Null)))
		}
		return t.anon().Coalesce(append(branches, t.null())...)
	case "size", "length":
		typ := t.typeOf(args[0])
		switch {
		case typ == ast.TypeList:
			return t.nonNull(t.value(args[0]), t.anon().CountLocal())
		case typ == ast.TypePath:
			return t.nonNull(t.value(args[0]), t.anon().CountLocal().Math("(_ - 1) / 2"))
		case !t.ctx.Flavor.CustomFunctions:
			return t.nonNull(t.value(args[0]), t.anon().CountLocal())
		}
		return t.value(args[0]).MapFunction(steps.Size())
	case "head":
		return t.nonNull(t.value(args[0]), t.anon().Coalesce(t.anon().Unfold().Limit(1), t.null()))
	case "last":
		return t.list([]ast.Expr{args[0], &ast.Literal{Value: int64(-1)}}).MapFunction(steps.ContainerIndex())
	case "tail":
		return t.list([]ast.Expr{args[0], &ast.Literal{Value: int64(1)}, ast.Null()}).MapFunction(steps.ListSlice())
	case "range":
		if bounds, ok := literalInts(args); ok {
			list, err := rangeValues(bounds)
			if err != nil {
				t.fail(ErrCodeInvalidRange, "%s", err.Error())
				return t.null()
			}
			return t.anon().Constant(list)
		}
		return t.list(args).MapFunction(steps.Range())
	case "nodes":
		return t.nonNull(t.value(args[0]), t.anon().Map(t.anon().Unfold().Is(steps.IsNode()).Fold()))
	case "relationships":
		return t.nonNull(t.value(args[0]), t.anon().Map(t.anon().Unfold().Is(steps.IsRelationship()).Fold()))
	case "startnode":
		return t.nonNull(t.value(args[0]), t.anon().OutV())
	case "endnode":
		return t.nonNull(t.value(args[0]), t.anon().InV())
	case "pi":
		return t.anon().Constant(math.Pi)
	case "e":
		return t.anon().Constant(math.E)
	}
	t.fail(ErrCodeUnknownFunction, "Unknown function '%s'", f.Name)
	return t.null()
}

// elementValue is the value of e, guarded when e names a deleted element.
func (t *translator) elementValue(e ast.Expr) steps.Steps {
	if guard, deleted := t.deletedAccess(e); deleted {
		return guard
	}
	return t.value(e)
}

// literalInts returns the values of integer literal arguments.
func literalInts(args []ast.Expr) ([]int64, bool) {
	out := make([]int64, len(args))
	for i, a := range args {
		lit, ok := a.(*ast.Literal)
		if !ok {
			return nil, false
		}
		n, ok := lit.Value.(int64)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// rangeValues evaluates range() at translation time with the same rules
// the runtime function applies.
func rangeValues(bounds []int64) ([]any, error) {
	in := make([]any, len(bounds))
	for i, b := range bounds {
		in[i] = b
	}
	out, err := extension.Range(in)
	var xerr *extension.Error
	if errors.As(err, &xerr) {
		return nil, errors.New(xerr.Message)
	}
	if err != nil {
		return nil, err
	}
	return out.([]any), nil
}

package bytecode

import (
	"fmt"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// Builder appends instructions to a Bytecode.
type Builder struct {
	bc     *Bytecode
	errors *steps.Errors
}

// New returns a root bytecode builder.
func New() *Builder {
	return &Builder{bc: &Bytecode{}, errors: &steps.Errors{}}
}

// Bytecode returns the instructions built so far.
func (b *Builder) Bytecode() *Bytecode { return b.bc }

func (b *Builder) Current() any { return b.bc }

func (b *Builder) Start() steps.Steps {
	return &Builder{bc: &Bytecode{Anonymous: true}, errors: b.errors}
}

func (b *Builder) Err() error { return b.errors.Err() }

func (b *Builder) add(op string, args ...any) steps.Steps {
	converted := make([]any, len(args))
	for i, a := range args {
		converted[i] = b.convert(a)
	}
	b.bc.Instructions = append(b.bc.Instructions, Instruction{Operator: op, Args: converted})
	return b
}

func (b *Builder) convert(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int64, float64:
		return x
	case int:
		return int64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = b.convert(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = b.convert(e)
		}
		return out
	case steps.Param:
		return Binding{Key: x.Name, Value: b.convert(x.Value)}
	case steps.P:
		args := make([]any, len(x.Args))
		for i, a := range x.Args {
			args[i] = b.convert(a)
		}
		return Predicate{Operator: x.Name, Args: args, Custom: x.Custom}
	case steps.Function:
		return Lambda{Name: x.Name, Args: x.Args}
	case steps.Order:
		return Enum{Type: "Order", Value: string(x)}
	case steps.Scope:
		return Enum{Type: "Scope", Value: string(x)}
	case steps.Column:
		return Enum{Type: "Column", Value: string(x)}
	case steps.Pop:
		return Enum{Type: "Pop", Value: string(x)}
	case steps.Cardinality:
		return Enum{Type: "Cardinality", Value: string(x)}
	case steps.Steps:
		bc, ok := x.Current().(*Bytecode)
		if !ok {
			b.errors.Record(fmt.Errorf("bytecode: cannot embed %T traversal", x.Current()))
			return &Bytecode{Anonymous: true}
		}
		return bc
	}
	b.errors.Record(fmt.Errorf("bytecode: unsupported argument type %T", v))
	return nil
}

func strs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func travs(ts []steps.Steps) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func (b *Builder) V() steps.Steps                   { return b.add("V") }
func (b *Builder) E() steps.Steps                   { return b.add("E") }
func (b *Builder) Inject(values ...any) steps.Steps { return b.add("inject", values...) }

func (b *Builder) AddV(label string) steps.Steps {
	if label == "" {
		return b.add("addV")
	}
	return b.add("addV", label)
}

func (b *Builder) AddE(label string) steps.Steps                  { return b.add("addE", label) }
func (b *Builder) From(label string) steps.Steps                  { return b.add("from", label) }
func (b *Builder) To(label string) steps.Steps                    { return b.add("to", label) }
func (b *Builder) OutE(labels ...string) steps.Steps              { return b.add("outE", strs(labels)...) }
func (b *Builder) InE(labels ...string) steps.Steps               { return b.add("inE", strs(labels)...) }
func (b *Builder) BothE(labels ...string) steps.Steps             { return b.add("bothE", strs(labels)...) }
func (b *Builder) OutV() steps.Steps                              { return b.add("outV") }
func (b *Builder) InV() steps.Steps                               { return b.add("inV") }
func (b *Builder) OtherV() steps.Steps                            { return b.add("otherV") }
func (b *Builder) Drop() steps.Steps                              { return b.add("drop") }
func (b *Builder) Property(key, value any) steps.Steps            { return b.add("property", key, value) }
func (b *Builder) PropertyList(key string, value any) steps.Steps { return b.add("property", steps.CardinalityList, key, value) }
func (b *Builder) Properties(keys ...string) steps.Steps          { return b.add("properties", strs(keys)...) }
func (b *Builder) Values(keys ...string) steps.Steps              { return b.add("values", strs(keys)...) }
func (b *Builder) Value() steps.Steps                             { return b.add("value") }
func (b *Builder) Key() steps.Steps                               { return b.add("key") }
func (b *Builder) ValueMap(includeTokens bool) steps.Steps        { return b.add("valueMap", includeTokens) }
func (b *Builder) Id() steps.Steps                                { return b.add("id") }
func (b *Builder) Label() steps.Steps                             { return b.add("label") }

func (b *Builder) As(label string) steps.Steps             { return b.add("as", label) }
func (b *Builder) Select(keys ...string) steps.Steps       { return b.add("select", strs(keys)...) }
func (b *Builder) SelectColumn(c steps.Column) steps.Steps { return b.add("select", c) }
func (b *Builder) SelectPop(p steps.Pop, key string) steps.Steps {
	return b.add("select", p, key)
}
func (b *Builder) Path() steps.Steps                       { return b.add("path") }

func (b *Builder) Has(key string) steps.Steps                           { return b.add("has", key) }
func (b *Builder) HasValue(key string, p steps.P) steps.Steps           { return b.add("has", key, p) }
func (b *Builder) HasKey(keys ...string) steps.Steps                    { return b.add("hasKey", strs(keys)...) }
func (b *Builder) HasLabel(labels ...string) steps.Steps                { return b.add("hasLabel", strs(labels)...) }
func (b *Builder) HasNot(key string) steps.Steps                        { return b.add("hasNot", key) }
func (b *Builder) Is(p steps.P) steps.Steps                             { return b.add("is", p) }
func (b *Builder) Where(t steps.Steps) steps.Steps                      { return b.add("where", t) }
func (b *Builder) WherePredicate(p steps.P) steps.Steps                 { return b.add("where", p) }
func (b *Builder) WhereKey(startKey string, p steps.P) steps.Steps      { return b.add("where", startKey, p) }
func (b *Builder) And(ts ...steps.Steps) steps.Steps                    { return b.add("and", travs(ts)...) }
func (b *Builder) Or(ts ...steps.Steps) steps.Steps                     { return b.add("or", travs(ts)...) }
func (b *Builder) Not(t steps.Steps) steps.Steps                        { return b.add("not", t) }
func (b *Builder) Dedup(labels ...string) steps.Steps                   { return b.add("dedup", strs(labels)...) }
func (b *Builder) Limit(n int64) steps.Steps                            { return b.add("limit", n) }
func (b *Builder) Skip(n int64) steps.Steps                             { return b.add("skip", n) }
func (b *Builder) Range(lo, hi int64) steps.Steps                       { return b.add("range", lo, hi) }
func (b *Builder) Choose(predicate, t, f steps.Steps) steps.Steps       { return b.add("choose", predicate, t, f) }
func (b *Builder) Coalesce(ts ...steps.Steps) steps.Steps               { return b.add("coalesce", travs(ts)...) }
func (b *Builder) Union(ts ...steps.Steps) steps.Steps                  { return b.add("union", travs(ts)...) }
func (b *Builder) Optional(t steps.Steps) steps.Steps                   { return b.add("optional", t) }
func (b *Builder) Local(t steps.Steps) steps.Steps                      { return b.add("local", t) }
func (b *Builder) Repeat(t steps.Steps) steps.Steps                     { return b.add("repeat", t) }
func (b *Builder) Times(n int) steps.Steps                              { return b.add("times", n) }
func (b *Builder) Emit() steps.Steps                                    { return b.add("emit") }
func (b *Builder) Until(t steps.Steps) steps.Steps                      { return b.add("until", t) }
func (b *Builder) Loops() steps.Steps                                   { return b.add("loops") }
func (b *Builder) Constant(v any) steps.Steps                           { return b.add("constant", v) }
func (b *Builder) Identity() steps.Steps                                { return b.add("identity") }
func (b *Builder) Map(t steps.Steps) steps.Steps                        { return b.add("map", t) }
func (b *Builder) MapFunction(f steps.Function) steps.Steps             { return b.add("map", f) }
func (b *Builder) FlatMap(t steps.Steps) steps.Steps                    { return b.add("flatMap", t) }
func (b *Builder) Project(keys ...string) steps.Steps                   { return b.add("project", strs(keys)...) }
func (b *Builder) By(t steps.Steps) steps.Steps                         { return b.add("by", t) }
func (b *Builder) ByOrder(t steps.Steps, order steps.Order) steps.Steps { return b.add("by", t, order) }
func (b *Builder) Math(expression string) steps.Steps                   { return b.add("math", expression) }
func (b *Builder) Fold() steps.Steps                                    { return b.add("fold") }
func (b *Builder) Unfold() steps.Steps                                  { return b.add("unfold") }
func (b *Builder) Count() steps.Steps                                   { return b.add("count") }
func (b *Builder) CountLocal() steps.Steps                              { return b.add("count", steps.ScopeLocal) }
func (b *Builder) Sum() steps.Steps                                     { return b.add("sum") }
func (b *Builder) Mean() steps.Steps                                    { return b.add("mean") }
func (b *Builder) Min() steps.Steps                                     { return b.add("min") }
func (b *Builder) Max() steps.Steps                                     { return b.add("max") }
func (b *Builder) Group() steps.Steps                                   { return b.add("group") }
func (b *Builder) Order() steps.Steps                                   { return b.add("order") }
func (b *Builder) SideEffect(t steps.Steps) steps.Steps                 { return b.add("sideEffect", t) }
func (b *Builder) Aggregate(key string) steps.Steps                     { return b.add("aggregate", key) }
func (b *Builder) Cap(key string) steps.Steps                           { return b.add("cap", key) }
func (b *Builder) Barrier() steps.Steps                                 { return b.add("barrier") }

func (b *Builder) ChoosePredicate(p steps.P, trueChoice, falseChoice steps.Steps) steps.Steps {
	if falseChoice == nil {
		return b.add("choose", p, trueChoice)
	}
	return b.add("choose", p, trueChoice, falseChoice)
}

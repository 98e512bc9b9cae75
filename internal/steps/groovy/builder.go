// Package groovy renders traversals as Gremlin-Groovy source text.
//
// Example:
//
//	b := groovy.New()
//	b.V().As("n").Select("n")
//	b.Current() // "g.V().as('n').select('n')"
package groovy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// Builder appends steps to a text buffer. The root traversal starts with
// "g", anonymous traversals with "__".
type Builder struct {
	sb     strings.Builder
	errors *steps.Errors
}

// New returns a root text builder.
func New() *Builder {
	return newBuilder("g", &steps.Errors{})
}

func newBuilder(start string, errs *steps.Errors) *Builder {
	b := &Builder{errors: errs}
	b.sb.WriteString(start)
	return b
}

func (b *Builder) String() string { return b.sb.String() }

// Current returns the traversal text built so far.
func (b *Builder) Current() any { return b.sb.String() }

func (b *Builder) Start() steps.Steps { return newBuilder("__", b.errors) }

func (b *Builder) Err() error { return b.errors.Err() }

func (b *Builder) chain(name string, args ...any) steps.Steps {
	b.sb.WriteByte('.')
	b.sb.WriteString(name)
	b.sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(b.literal(a))
	}
	b.sb.WriteByte(')')
	return b
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func traversalArgs(ts []steps.Steps) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// literal renders one argument.
func (b *Builder) literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = b.literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		if len(x) == 0 {
			return "[:]"
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = mapKey(k) + ": " + b.literal(x[k])
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case steps.Param:
		if !isIdentifier(x.Name) {
			b.errors.Record(fmt.Errorf("Invalid parameter name: %s", x.Name))
		}
		return x.Name
	case steps.P:
		return predicate(b, x)
	case steps.Function:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = b.literal(a)
		}
		return x.Name + "(" + strings.Join(args, ", ") + ")"
	case steps.Order:
		return "Order." + string(x)
	case steps.Scope:
		return "Scope." + string(x)
	case steps.Column:
		return "Column." + string(x)
	case steps.Pop:
		return "Pop." + string(x)
	case steps.Cardinality:
		return "VertexProperty.Cardinality." + string(x)
	case steps.Steps:
		s, ok := x.Current().(string)
		if !ok {
			b.errors.Record(fmt.Errorf("groovy: cannot render %T traversal", x.Current()))
			return "__"
		}
		return s
	}
	b.errors.Record(fmt.Errorf("groovy: unsupported argument type %T", v))
	return "null"
}

func predicate(b *Builder, p steps.P) string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = b.literal(a)
	}
	call := p.Name + "(" + strings.Join(args, ", ") + ")"
	switch {
	case p.Custom:
		return call
	case textPredicates[p.Name]:
		return "TextP." + call
	}
	return "P." + call
}

var textPredicates = map[string]bool{
	"startingWith": true,
	"endingWith":   true,
	"containing":   true,
}

func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('\'')
	return sb.String()
}

func mapKey(k string) string {
	if isIdentifier(k) {
		return k
	}
	return quote(k)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "Double.NaN"
	case math.IsInf(f, 1):
		return "Double.POSITIVE_INFINITY"
	case math.IsInf(f, -1):
		return "Double.NEGATIVE_INFINITY"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "d"
}

// isIdentifier reports whether name is a valid Groovy variable name.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (b *Builder) V() steps.Steps                   { return b.chain("V") }
func (b *Builder) E() steps.Steps                   { return b.chain("E") }
func (b *Builder) Inject(values ...any) steps.Steps { return b.chain("inject", values...) }

func (b *Builder) AddV(label string) steps.Steps {
	if label == "" {
		return b.chain("addV")
	}
	return b.chain("addV", label)
}

func (b *Builder) AddE(label string) steps.Steps      { return b.chain("addE", label) }
func (b *Builder) From(label string) steps.Steps      { return b.chain("from", label) }
func (b *Builder) To(label string) steps.Steps        { return b.chain("to", label) }
func (b *Builder) OutE(labels ...string) steps.Steps  { return b.chain("outE", stringArgs(labels)...) }
func (b *Builder) InE(labels ...string) steps.Steps   { return b.chain("inE", stringArgs(labels)...) }
func (b *Builder) BothE(labels ...string) steps.Steps { return b.chain("bothE", stringArgs(labels)...) }
func (b *Builder) OutV() steps.Steps                  { return b.chain("outV") }
func (b *Builder) InV() steps.Steps                   { return b.chain("inV") }
func (b *Builder) OtherV() steps.Steps                { return b.chain("otherV") }
func (b *Builder) Drop() steps.Steps                  { return b.chain("drop") }

func (b *Builder) Property(key, value any) steps.Steps {
	return b.chain("property", key, value)
}

func (b *Builder) PropertyList(key string, value any) steps.Steps {
	return b.chain("property", steps.CardinalityList, key, value)
}

func (b *Builder) Properties(keys ...string) steps.Steps { return b.chain("properties", stringArgs(keys)...) }
func (b *Builder) Values(keys ...string) steps.Steps     { return b.chain("values", stringArgs(keys)...) }
func (b *Builder) Value() steps.Steps                    { return b.chain("value") }
func (b *Builder) Key() steps.Steps                      { return b.chain("key") }

func (b *Builder) ValueMap(includeTokens bool) steps.Steps {
	if includeTokens {
		return b.chain("valueMap", true)
	}
	return b.chain("valueMap")
}

func (b *Builder) Id() steps.Steps    { return b.chain("id") }
func (b *Builder) Label() steps.Steps { return b.chain("label") }

func (b *Builder) As(label string) steps.Steps             { return b.chain("as", label) }
func (b *Builder) Select(keys ...string) steps.Steps       { return b.chain("select", stringArgs(keys)...) }
func (b *Builder) SelectColumn(c steps.Column) steps.Steps { return b.chain("select", c) }
func (b *Builder) SelectPop(p steps.Pop, key string) steps.Steps {
	return b.chain("select", p, key)
}
func (b *Builder) Path() steps.Steps                       { return b.chain("path") }

func (b *Builder) Has(key string) steps.Steps                 { return b.chain("has", key) }
func (b *Builder) HasValue(key string, p steps.P) steps.Steps { return b.chain("has", key, p) }
func (b *Builder) HasKey(keys ...string) steps.Steps          { return b.chain("hasKey", stringArgs(keys)...) }
func (b *Builder) HasLabel(labels ...string) steps.Steps      { return b.chain("hasLabel", stringArgs(labels)...) }
func (b *Builder) HasNot(key string) steps.Steps              { return b.chain("hasNot", key) }
func (b *Builder) Is(p steps.P) steps.Steps                   { return b.chain("is", p) }
func (b *Builder) Where(t steps.Steps) steps.Steps            { return b.chain("where", t) }
func (b *Builder) WherePredicate(p steps.P) steps.Steps       { return b.chain("where", p) }

func (b *Builder) WhereKey(startKey string, p steps.P) steps.Steps {
	return b.chain("where", startKey, p)
}

func (b *Builder) And(ts ...steps.Steps) steps.Steps { return b.chain("and", traversalArgs(ts)...) }
func (b *Builder) Or(ts ...steps.Steps) steps.Steps  { return b.chain("or", traversalArgs(ts)...) }
func (b *Builder) Not(t steps.Steps) steps.Steps     { return b.chain("not", t) }

func (b *Builder) Dedup(labels ...string) steps.Steps {
	return b.chain("dedup", stringArgs(labels)...)
}

func (b *Builder) Limit(n int64) steps.Steps      { return b.chain("limit", n) }
func (b *Builder) Skip(n int64) steps.Steps       { return b.chain("skip", n) }
func (b *Builder) Range(lo, hi int64) steps.Steps { return b.chain("range", lo, hi) }

func (b *Builder) Choose(predicate, trueChoice, falseChoice steps.Steps) steps.Steps {
	return b.chain("choose", predicate, trueChoice, falseChoice)
}

func (b *Builder) ChoosePredicate(p steps.P, trueChoice, falseChoice steps.Steps) steps.Steps {
	if falseChoice == nil {
		return b.chain("choose", p, trueChoice)
	}
	return b.chain("choose", p, trueChoice, falseChoice)
}

func (b *Builder) Coalesce(ts ...steps.Steps) steps.Steps { return b.chain("coalesce", traversalArgs(ts)...) }
func (b *Builder) Union(ts ...steps.Steps) steps.Steps    { return b.chain("union", traversalArgs(ts)...) }
func (b *Builder) Optional(t steps.Steps) steps.Steps     { return b.chain("optional", t) }
func (b *Builder) Local(t steps.Steps) steps.Steps        { return b.chain("local", t) }

func (b *Builder) Repeat(t steps.Steps) steps.Steps { return b.chain("repeat", t) }
func (b *Builder) Times(n int) steps.Steps          { return b.chain("times", n) }
func (b *Builder) Emit() steps.Steps                { return b.chain("emit") }
func (b *Builder) Until(t steps.Steps) steps.Steps  { return b.chain("until", t) }
func (b *Builder) Loops() steps.Steps               { return b.chain("loops") }

func (b *Builder) Constant(v any) steps.Steps               { return b.chain("constant", v) }
func (b *Builder) Identity() steps.Steps                    { return b.chain("identity") }
func (b *Builder) Map(t steps.Steps) steps.Steps            { return b.chain("map", t) }
func (b *Builder) MapFunction(f steps.Function) steps.Steps { return b.chain("map", f) }
func (b *Builder) FlatMap(t steps.Steps) steps.Steps        { return b.chain("flatMap", t) }

func (b *Builder) Project(keys ...string) steps.Steps {
	return b.chain("project", stringArgs(keys)...)
}

func (b *Builder) By(t steps.Steps) steps.Steps { return b.chain("by", t) }

func (b *Builder) ByOrder(t steps.Steps, order steps.Order) steps.Steps {
	return b.chain("by", t, order)
}

func (b *Builder) Math(expression string) steps.Steps { return b.chain("math", expression) }
func (b *Builder) Fold() steps.Steps                  { return b.chain("fold") }
func (b *Builder) Unfold() steps.Steps                { return b.chain("unfold") }

func (b *Builder) Count() steps.Steps      { return b.chain("count") }
func (b *Builder) CountLocal() steps.Steps { return b.chain("count", steps.ScopeLocal) }
func (b *Builder) Sum() steps.Steps        { return b.chain("sum") }
func (b *Builder) Mean() steps.Steps       { return b.chain("mean") }
func (b *Builder) Min() steps.Steps        { return b.chain("min") }
func (b *Builder) Max() steps.Steps        { return b.chain("max") }
func (b *Builder) Group() steps.Steps      { return b.chain("group") }
func (b *Builder) Order() steps.Steps      { return b.chain("order") }

func (b *Builder) SideEffect(t steps.Steps) steps.Steps { return b.chain("sideEffect", t) }
func (b *Builder) Aggregate(key string) steps.Steps     { return b.chain("aggregate", key) }
func (b *Builder) Cap(key string) steps.Steps           { return b.chain("cap", key) }
func (b *Builder) Barrier() steps.Steps                 { return b.chain("barrier") }

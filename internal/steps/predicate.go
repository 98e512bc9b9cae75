package steps

// P is a predicate argument of is(), has(), where() and choose().
//
// Built-in predicates (eq, within, startingWith...) are understood by every
// Gremlin engine. Custom predicates (cypherIsNode, cypherRegex...) need the
// runtime extension installed on the engine; flavors that lack it reject
// them by name.
type P struct {
	Name   string
	Args   []any
	Custom bool
}

func builtin(name string, args ...any) P {
	return P{Name: name, Args: args}
}

func custom(name string, args ...any) P {
	return P{Name: name, Args: args, Custom: true}
}

// Predicate constructors. The names match the Gremlin P methods and the
// runtime extension predicates they render as.
func Eq(v any) P                        { return builtin("eq", v) }
func Neq(v any) P                       { return builtin("neq", v) }
func Lt(v any) P                        { return builtin("lt", v) }
func Lte(v any) P                       { return builtin("lte", v) }
func Gt(v any) P                        { return builtin("gt", v) }
func Gte(v any) P                       { return builtin("gte", v) }
func Between(lo, hi any) P              { return builtin("between", lo, hi) }
func Within(vs ...any) P                { return builtin("within", vs...) }
func Without(vs ...any) P               { return builtin("without", vs...) }
func StartingWith(v any) P              { return builtin("startingWith", v) }
func EndingWith(v any) P                { return builtin("endingWith", v) }
func Containing(v any) P                { return builtin("containing", v) }
func IsNode() P                         { return custom("cypherIsNode") }
func IsRelationship() P                 { return custom("cypherIsRelationship") }
func IsString() P                       { return custom("cypherIsString") }
func Regex(pattern any) P               { return custom("cypherRegex", pattern) }
func Custom(name string, args ...any) P { return custom(name, args...) }

var negations = map[string]string{
	"eq":      "neq",
	"neq":     "eq",
	"lt":      "gte",
	"gte":     "lt",
	"gt":      "lte",
	"lte":     "gt",
	"within":  "without",
	"without": "within",
}

// Negate returns the complementary built-in predicate. The second result
// is false when p has no single-predicate complement.
//
// Negation is only exact for non-null operands; callers handle null first.
func (p P) Negate() (P, bool) {
	name, ok := negations[p.Name]
	if !ok || p.Custom {
		return P{}, false
	}
	return P{Name: name, Args: p.Args}, true
}

// Arg returns the single argument of a one-argument predicate.
func (p P) Arg() any {
	if len(p.Args) == 0 {
		return nil
	}
	return p.Args[0]
}

package steps

// Steps is the traversal builder the translator emits through.
//
// Each method appends one Gremlin step to the receiver and returns the
// receiver. Methods that take traversals (And, Choose, Coalesce...) expect
// anonymous traversals created by Start on the same builder or decorator
// chain; mixing encodings records an error instead of panicking.
//
// Arguments typed any accept: nil, bool, int64, float64, string, []any,
// map[string]any, Param, and (where Gremlin allows a traversal) Steps.
type Steps interface {
	// Current returns the encoding's representation of the traversal built
	// so far: a string for text, a *bytecode.Bytecode, a *native.Traversal.
	Current() any

	// Start returns a new anonymous traversal sharing this builder's
	// encoding, decorators and error sink.
	Start() Steps

	// Err returns the first error recorded while building.
	Err() error

	// Sources.
	V() Steps
	E() Steps
	Inject(values ...any) Steps

	// Graph structure.
	AddV(label string) Steps
	AddE(label string) Steps
	From(label string) Steps
	To(label string) Steps
	OutE(labels ...string) Steps
	InE(labels ...string) Steps
	BothE(labels ...string) Steps
	OutV() Steps
	InV() Steps
	OtherV() Steps
	Drop() Steps
	Property(key, value any) Steps
	PropertyList(key string, value any) Steps
	Properties(keys ...string) Steps
	Values(keys ...string) Steps
	Value() Steps
	Key() Steps
	ValueMap(includeTokens bool) Steps
	Id() Steps
	Label() Steps

	// Labels and selection.
	As(label string) Steps
	Select(keys ...string) Steps
	SelectColumn(column Column) Steps
	SelectPop(pop Pop, key string) Steps
	Path() Steps

	// Filters.
	Has(key string) Steps
	HasValue(key string, p P) Steps
	HasKey(keys ...string) Steps
	HasLabel(labels ...string) Steps
	HasNot(key string) Steps
	Is(p P) Steps
	Where(t Steps) Steps
	WherePredicate(p P) Steps
	WhereKey(startKey string, p P) Steps
	And(ts ...Steps) Steps
	Or(ts ...Steps) Steps
	Not(t Steps) Steps
	Dedup(labels ...string) Steps
	Limit(n int64) Steps
	Skip(n int64) Steps
	Range(lo, hi int64) Steps

	// Branching.
	Choose(predicate, trueChoice, falseChoice Steps) Steps
	ChoosePredicate(p P, trueChoice, falseChoice Steps) Steps
	Coalesce(ts ...Steps) Steps
	Union(ts ...Steps) Steps
	Optional(t Steps) Steps
	Local(t Steps) Steps

	// Looping.
	Repeat(t Steps) Steps
	Times(n int) Steps
	Emit() Steps
	Until(t Steps) Steps
	Loops() Steps

	// Mapping.
	Constant(v any) Steps
	Identity() Steps
	Map(t Steps) Steps
	MapFunction(f Function) Steps
	FlatMap(t Steps) Steps
	Project(keys ...string) Steps
	By(t Steps) Steps
	ByOrder(t Steps, order Order) Steps
	Math(expression string) Steps
	Fold() Steps
	Unfold() Steps

	// Reducing.
	Count() Steps
	CountLocal() Steps
	Sum() Steps
	Mean() Steps
	Min() Steps
	Max() Steps
	Group() Steps
	Order() Steps

	// Side effects.
	SideEffect(t Steps) Steps
	Aggregate(key string) Steps
	Cap(key string) Steps
	Barrier() Steps
}

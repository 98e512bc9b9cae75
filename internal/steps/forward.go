package steps

// Forward passes every primitive through to Inner and returns Self, the
// outermost decorator, so that chained calls keep going through the whole
// decorator chain.
//
// A decorator embeds *Forward and overrides the primitives it patches:
//
//	type Quirk struct{ *steps.Forward }
//
//	func NewQuirk(inner steps.Steps) steps.Steps {
//		d := &Quirk{}
//		d.Forward = steps.NewForward(inner, d, NewQuirk)
//		return d
//	}
type Forward struct {
	Inner Steps
	Self  Steps
	wrap  func(Steps) Steps
}

// NewForward builds the pass-through base of a decorator. wrap re-applies
// the decorator to anonymous traversals created by Start.
func NewForward(inner, self Steps, wrap func(Steps) Steps) *Forward {
	return &Forward{Inner: inner, Self: self, wrap: wrap}
}

func (f *Forward) Current() any { return f.Inner.Current() }
func (f *Forward) Err() error   { return f.Inner.Err() }

// Start creates an anonymous traversal wrapped by the same decorator.
func (f *Forward) Start() Steps { return f.wrap(f.Inner.Start()) }

func (f *Forward) V() Steps {
	f.Inner.V()
	return f.Self
}

func (f *Forward) E() Steps {
	f.Inner.E()
	return f.Self
}

func (f *Forward) Inject(values ...any) Steps {
	f.Inner.Inject(values...)
	return f.Self
}

func (f *Forward) AddV(label string) Steps {
	f.Inner.AddV(label)
	return f.Self
}

func (f *Forward) AddE(label string) Steps {
	f.Inner.AddE(label)
	return f.Self
}

func (f *Forward) From(label string) Steps {
	f.Inner.From(label)
	return f.Self
}

func (f *Forward) To(label string) Steps {
	f.Inner.To(label)
	return f.Self
}

func (f *Forward) OutE(labels ...string) Steps {
	f.Inner.OutE(labels...)
	return f.Self
}

func (f *Forward) InE(labels ...string) Steps {
	f.Inner.InE(labels...)
	return f.Self
}

func (f *Forward) BothE(labels ...string) Steps {
	f.Inner.BothE(labels...)
	return f.Self
}

func (f *Forward) OutV() Steps {
	f.Inner.OutV()
	return f.Self
}

func (f *Forward) InV() Steps {
	f.Inner.InV()
	return f.Self
}

func (f *Forward) OtherV() Steps {
	f.Inner.OtherV()
	return f.Self
}

func (f *Forward) Drop() Steps {
	f.Inner.Drop()
	return f.Self
}

func (f *Forward) Property(key, value any) Steps {
	f.Inner.Property(key, value)
	return f.Self
}

func (f *Forward) PropertyList(key string, value any) Steps {
	f.Inner.PropertyList(key, value)
	return f.Self
}

func (f *Forward) Properties(keys ...string) Steps {
	f.Inner.Properties(keys...)
	return f.Self
}

func (f *Forward) Values(keys ...string) Steps {
	f.Inner.Values(keys...)
	return f.Self
}

func (f *Forward) Value() Steps {
	f.Inner.Value()
	return f.Self
}

func (f *Forward) Key() Steps {
	f.Inner.Key()
	return f.Self
}

func (f *Forward) ValueMap(includeTokens bool) Steps {
	f.Inner.ValueMap(includeTokens)
	return f.Self
}

func (f *Forward) Id() Steps {
	f.Inner.Id()
	return f.Self
}

func (f *Forward) Label() Steps {
	f.Inner.Label()
	return f.Self
}

func (f *Forward) As(label string) Steps {
	f.Inner.As(label)
	return f.Self
}

func (f *Forward) Select(keys ...string) Steps {
	f.Inner.Select(keys...)
	return f.Self
}

func (f *Forward) SelectColumn(column Column) Steps {
	f.Inner.SelectColumn(column)
	return f.Self
}

func (f *Forward) SelectPop(pop Pop, key string) Steps {
	f.Inner.SelectPop(pop, key)
	return f.Self
}

func (f *Forward) Path() Steps {
	f.Inner.Path()
	return f.Self
}

func (f *Forward) Has(key string) Steps {
	f.Inner.Has(key)
	return f.Self
}

func (f *Forward) HasValue(key string, p P) Steps {
	f.Inner.HasValue(key, p)
	return f.Self
}

func (f *Forward) HasKey(keys ...string) Steps {
	f.Inner.HasKey(keys...)
	return f.Self
}

func (f *Forward) HasLabel(labels ...string) Steps {
	f.Inner.HasLabel(labels...)
	return f.Self
}

func (f *Forward) HasNot(key string) Steps {
	f.Inner.HasNot(key)
	return f.Self
}

func (f *Forward) Is(p P) Steps {
	f.Inner.Is(p)
	return f.Self
}

func (f *Forward) Where(t Steps) Steps {
	f.Inner.Where(t)
	return f.Self
}

func (f *Forward) WherePredicate(p P) Steps {
	f.Inner.WherePredicate(p)
	return f.Self
}

func (f *Forward) WhereKey(startKey string, p P) Steps {
	f.Inner.WhereKey(startKey, p)
	return f.Self
}

func (f *Forward) And(ts ...Steps) Steps {
	f.Inner.And(ts...)
	return f.Self
}

func (f *Forward) Or(ts ...Steps) Steps {
	f.Inner.Or(ts...)
	return f.Self
}

func (f *Forward) Not(t Steps) Steps {
	f.Inner.Not(t)
	return f.Self
}

func (f *Forward) Dedup(labels ...string) Steps {
	f.Inner.Dedup(labels...)
	return f.Self
}

func (f *Forward) Limit(n int64) Steps {
	f.Inner.Limit(n)
	return f.Self
}

func (f *Forward) Skip(n int64) Steps {
	f.Inner.Skip(n)
	return f.Self
}

func (f *Forward) Range(lo, hi int64) Steps {
	f.Inner.Range(lo, hi)
	return f.Self
}

func (f *Forward) Choose(predicate, trueChoice, falseChoice Steps) Steps {
	f.Inner.Choose(predicate, trueChoice, falseChoice)
	return f.Self
}

func (f *Forward) ChoosePredicate(p P, trueChoice, falseChoice Steps) Steps {
	f.Inner.ChoosePredicate(p, trueChoice, falseChoice)
	return f.Self
}

func (f *Forward) Coalesce(ts ...Steps) Steps {
	f.Inner.Coalesce(ts...)
	return f.Self
}

func (f *Forward) Union(ts ...Steps) Steps {
	f.Inner.Union(ts...)
	return f.Self
}

func (f *Forward) Optional(t Steps) Steps {
	f.Inner.Optional(t)
	return f.Self
}

func (f *Forward) Local(t Steps) Steps {
	f.Inner.Local(t)
	return f.Self
}

func (f *Forward) Repeat(t Steps) Steps {
	f.Inner.Repeat(t)
	return f.Self
}

func (f *Forward) Times(n int) Steps {
	f.Inner.Times(n)
	return f.Self
}

func (f *Forward) Emit() Steps {
	f.Inner.Emit()
	return f.Self
}

func (f *Forward) Until(t Steps) Steps {
	f.Inner.Until(t)
	return f.Self
}

func (f *Forward) Loops() Steps {
	f.Inner.Loops()
	return f.Self
}

func (f *Forward) Constant(v any) Steps {
	f.Inner.Constant(v)
	return f.Self
}

func (f *Forward) Identity() Steps {
	f.Inner.Identity()
	return f.Self
}

func (f *Forward) Map(t Steps) Steps {
	f.Inner.Map(t)
	return f.Self
}

func (f *Forward) MapFunction(fn Function) Steps {
	f.Inner.MapFunction(fn)
	return f.Self
}

func (f *Forward) FlatMap(t Steps) Steps {
	f.Inner.FlatMap(t)
	return f.Self
}

func (f *Forward) Project(keys ...string) Steps {
	f.Inner.Project(keys...)
	return f.Self
}

func (f *Forward) By(t Steps) Steps {
	f.Inner.By(t)
	return f.Self
}

func (f *Forward) ByOrder(t Steps, order Order) Steps {
	f.Inner.ByOrder(t, order)
	return f.Self
}

func (f *Forward) Math(expression string) Steps {
	f.Inner.Math(expression)
	return f.Self
}

func (f *Forward) Fold() Steps {
	f.Inner.Fold()
	return f.Self
}

func (f *Forward) Unfold() Steps {
	f.Inner.Unfold()
	return f.Self
}

func (f *Forward) Count() Steps {
	f.Inner.Count()
	return f.Self
}

func (f *Forward) CountLocal() Steps {
	f.Inner.CountLocal()
	return f.Self
}

func (f *Forward) Sum() Steps {
	f.Inner.Sum()
	return f.Self
}

func (f *Forward) Mean() Steps {
	f.Inner.Mean()
	return f.Self
}

func (f *Forward) Min() Steps {
	f.Inner.Min()
	return f.Self
}

func (f *Forward) Max() Steps {
	f.Inner.Max()
	return f.Self
}

func (f *Forward) Group() Steps {
	f.Inner.Group()
	return f.Self
}

func (f *Forward) Order() Steps {
	f.Inner.Order()
	return f.Self
}

func (f *Forward) SideEffect(t Steps) Steps {
	f.Inner.SideEffect(t)
	return f.Self
}

func (f *Forward) Aggregate(key string) Steps {
	f.Inner.Aggregate(key)
	return f.Self
}

func (f *Forward) Cap(key string) Steps {
	f.Inner.Cap(key)
	return f.Self
}

func (f *Forward) Barrier() Steps {
	f.Inner.Barrier()
	return f.Self
}

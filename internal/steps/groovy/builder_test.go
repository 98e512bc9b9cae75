package groovy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/steps"
)

func TestBuilderChainsSteps(t *testing.T) {
	b := New()
	b.V().As("n").Where(b.Start().Select("n").HasLabel("Person")).Select("n")

	assert.Equal(t, "g.V().as('n').where(__.select('n').hasLabel('Person')).select('n')", b.String())
	require.NoError(t, b.Err())
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"null", nil, "g.constant(null)"},
		{"string escapes", `it's a \ test`, `g.constant('it\'s a \\ test')`},
		{"integer", int64(42), "g.constant(42)"},
		{"float", 1.0, "g.constant(1.0d)"},
		{"bool", true, "g.constant(true)"},
		{"list", []any{int64(1), "a", nil}, "g.constant([1, 'a', null])"},
		{"map sorted", map[string]any{"b": int64(2), "a": int64(1)}, "g.constant([a: 1, b: 2])"},
		{"empty map", map[string]any{}, "g.constant([:])"},
		{"map key quoting", map[string]any{"a b": true}, "g.constant(['a b': true])"},
		{"sentinel", steps.Null, "g.constant('  cypher.null')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Constant(tt.value)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestPredicates(t *testing.T) {
	b := New()
	b.V().Has("age").HasValue("age", steps.Gt(int64(30))).Is(steps.Within(int64(1), int64(2))).Is(steps.Regex("a.*"))

	assert.Equal(t, "g.V().has('age').has('age', P.gt(30)).is(P.within(1, 2)).is(cypherRegex('a.*'))", b.String())
}

func TestTokensAndFunctions(t *testing.T) {
	b := New()
	b.Inject(steps.Start).
		CountLocal().
		SelectColumn(steps.ColumnValues).
		Order().ByOrder(b.Start().Select("x"), steps.OrderDesc).
		MapFunction(steps.Exception("DIVISION_BY_ZERO")).
		PropertyList("tags", "a")

	assert.Equal(t,
		"g.inject('  cypher.start').count(Scope.local).select(Column.values).order().by(__.select('x'), Order.desc)"+
			".map(cypherException('DIVISION_BY_ZERO')).property(VertexProperty.Cardinality.list, 'tags', 'a')",
		b.String())
}

func TestChooseWithoutFalseBranch(t *testing.T) {
	b := New()
	b.ChoosePredicate(steps.Neq(steps.Null), b.Start().Constant(int64(1)), nil)

	assert.Equal(t, "g.choose(P.neq('  cypher.null'), __.constant(1))", b.String())
}

func TestParameters(t *testing.T) {
	b := New()
	b.Inject(steps.Param{Name: "names", Value: []any{"a"}})
	assert.Equal(t, "g.inject(names)", b.String())
	require.NoError(t, b.Err())
}

func TestInvalidParameterNameIsRecorded(t *testing.T) {
	b := New()
	b.Constant(steps.Param{Name: "my param"})

	require.Error(t, b.Err())
	assert.Equal(t, "Invalid parameter name: my param", b.Err().Error())
}

func TestChildErrorsReachRoot(t *testing.T) {
	b := New()
	child := b.Start()
	child.Constant(struct{}{})

	assert.Error(t, b.Err())
}

func TestAddVWithoutLabel(t *testing.T) {
	b := New()
	b.AddV("").AddV("Person")
	assert.Equal(t, "g.addV().addV('Person')", b.String())
}

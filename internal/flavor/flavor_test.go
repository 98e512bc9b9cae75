package flavor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/steps"
	"github.com/roach88/cyphergremlin/internal/steps/groovy"
)

func TestLookup(t *testing.T) {
	f, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "gremlin", f.Name)

	f, err = Lookup("cosmosdb")
	require.NoError(t, err)
	assert.Equal(t, CosmosDBFlavor.Name, f.Name)
	assert.False(t, f.CustomFunctions)

	_, err = Lookup("neptune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flavor")
	assert.Equal(t, []string{"cosmosdb", "gremlin", "gremlin-plain"}, Names())
}

func TestGremlinPassesThrough(t *testing.T) {
	root := groovy.New()
	b := Gremlin.Decorate(root)
	b.V().Values("name").MapFunction(steps.ToInteger())

	require.NoError(t, b.Err())
	assert.Equal(t, "g.V().values('name').map(cypherToInteger())", root.String())
}

func TestCosmosDBRewritesValues(t *testing.T) {
	root := groovy.New()
	b := NewCosmosDB(root)
	b.V().As("n").Values("p")

	require.NoError(t, b.Err())
	assert.Equal(t, "g.V().as('n').properties().hasKey('p').value()", root.String())
}

func TestCosmosDBRewritesValuesInChildren(t *testing.T) {
	root := groovy.New()
	b := NewCosmosDB(root)
	b.V().Where(b.Start().Values("p").Is(steps.Eq(int64(1))))

	assert.Equal(t, "g.V().where(__.properties().hasKey('p').value().is(P.eq(1)))", root.String())
}

func TestCosmosDBRewritesChoosePredicate(t *testing.T) {
	root := groovy.New()
	b := NewCosmosDB(root)
	b.Inject(int64(1)).ChoosePredicate(steps.Gt(int64(0)), b.Start().Constant("pos"), b.Start().Constant("neg"))
	assert.Equal(t, "g.inject(1).choose(__.is(P.gt(0)), __.constant('pos'), __.constant('neg'))", root.String())

	root = groovy.New()
	b = NewCosmosDB(root)
	b.Inject(int64(1)).ChoosePredicate(steps.Gt(int64(0)), b.Start().Constant("pos"), nil)
	assert.Equal(t, "g.inject(1).choose(__.is(P.gt(0)), __.constant('pos'), __.identity())", root.String())
}

func TestNoCustomFunctionsNamesEveryUse(t *testing.T) {
	root := groovy.New()
	b := GremlinPlain.Decorate(root)
	b.V().
		Where(b.Start().Values("name").Is(steps.Regex("a.*"))).
		MapFunction(steps.ToString()).
		Map(b.Start().MapFunction(steps.ToInteger()).MapFunction(steps.ToString()))

	err := b.Err()
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.Equal(t,
		"custom functions and predicates are not supported on this flavor: cypherRegex, cypherToInteger, cypherToString",
		err.Error())
}

func TestNoCustomFunctionsAllowsBuiltins(t *testing.T) {
	b := GremlinPlain.Decorate(groovy.New())
	b.V().HasValue("age", steps.Gt(int64(3))).Where(b.Start().Is(steps.StartingWith("a")))
	assert.NoError(t, b.Err())
}

func TestCosmosDBFlavorChain(t *testing.T) {
	root := groovy.New()
	b := CosmosDBFlavor.Decorate(root)
	b.V().Values("p").ChoosePredicate(steps.IsString(), b.Start().Identity(), nil)

	assert.Equal(t,
		"g.V().properties().hasKey('p').value().choose(__.is(cypherIsString()), __.identity(), __.identity())",
		root.String())
	require.Error(t, b.Err())
	assert.Contains(t, b.Err().Error(), "cypherIsString")
}

package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/parser"
	"github.com/roach88/cyphergremlin/internal/procedures"
	"github.com/roach88/cyphergremlin/internal/steps/groovy"
)

type option func(*Context)

func withFlavor(f flavor.Flavor) option {
	return func(c *Context) { c.Flavor = f }
}

func withParams(p map[string]any) option {
	return func(c *Context) { c.Params = p }
}

func translateQuery(t *testing.T, q string, opts ...option) (string, *Plan, error) {
	t.Helper()
	stmt, err := parser.Parse(q)
	require.NoError(t, err, q)

	snapshot, err := procedures.NewSnapshot(procedures.Builtins...)
	require.NoError(t, err)
	ctx := &Context{Flavor: flavor.Gremlin, Procedures: snapshot}
	for _, o := range opts {
		o(ctx)
	}
	b := groovy.New()
	plan, err := Translate(ctx, stmt, b)
	return b.String(), plan, err
}

func mustTranslate(t *testing.T, q string, opts ...option) (string, *Plan) {
	t.Helper()
	out, plan, err := translateQuery(t, q, opts...)
	require.NoError(t, err, q)
	return out, plan
}

func TestTranslateMatchReturn(t *testing.T) {
	out, plan := mustTranslate(t, "MATCH (n:person) RETURN n")

	assert.Equal(t,
		"g.V().as('n').where(__.select('n').hasLabel('person')).project('n').by(__.select('n'))",
		out)
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "n", plan.Columns[0].Name)
	assert.Equal(t, []string{}, plan.Options)
}

func TestTranslatePropertyAccess(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) WHERE n.name = 'marko' RETURN n.age")

	assert.Contains(t, out, "__.select('n').values('name').is(P.eq('marko'))")
	assert.Contains(t, out, ".project('n.age').by(__.select('n').coalesce(__.values('age'), __.constant('  cypher.null')))")
}

func TestTranslateCreate(t *testing.T) {
	out, plan := mustTranslate(t, "CREATE (n:person {name: 'marko'})")

	assert.Equal(t, "g.addV('person').as('n').property('name', 'marko').barrier().limit(0)", out)
	assert.Empty(t, plan.Columns)
}

func TestTranslateCreateRelationship(t *testing.T) {
	out, _ := mustTranslate(t, "CREATE (a:person)-[:knows]->(b:person)")

	assert.True(t, strings.HasPrefix(out, "g.addV('person').as('a').addV('person').as('b').addE('knows').from('a').to('b')"), out)

	out, _ = mustTranslate(t, "CREATE (a:person)<-[:knows]-(b:person)")
	assert.Contains(t, out, "addE('knows').from('b').to('a')")
}

func TestTranslateUnwindLiteral(t *testing.T) {
	out, _ := mustTranslate(t, "UNWIND [1, 2, 3] AS x RETURN x")

	assert.Equal(t, "g.inject(1, 2, 3).as('x').project('x').by(__.select('x'))", out)
}

func TestTranslateUnwindAfterMatch(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) UNWIND n.tags AS tag RETURN tag")

	assert.Contains(t, out, ".flatMap(")
	assert.Contains(t, out, ".unfold()).as('tag')")
}

func TestTranslateRelationshipDirections(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"MATCH (a)-[r:knows]->(b) RETURN b", ".outE('knows').as('r').inV().as('b')"},
		{"MATCH (a)<-[r:knows]-(b) RETURN b", ".inE('knows').as('r').outV().as('b')"},
		{"MATCH (a)-[r:knows]-(b) RETURN b", ".bothE('knows').as('r').otherV().as('b')"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, _ := mustTranslate(t, tt.query)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTranslateRelationshipUniqueness(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (a)-[r1]->(b)-[r2]->(c) RETURN c")

	assert.Contains(t, out, "where(__.select('r1').where(P.neq('r2')))")
}

func TestTranslateRepeatedVariable(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (a)-[r]->(a) RETURN r")

	assert.Contains(t, out, ".where(P.eq('a'))")
}

func TestTranslateVariableLength(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (a)-[:knows*2]->(b) RETURN b")
	assert.Contains(t, out, ".times(2).repeat(__.outE('knows')")

	out, _ = mustTranslate(t, "MATCH (a)-[:knows*1..3]->(b) RETURN b")
	assert.Contains(t, out, ".emit().until(__.path().count(Scope.local).is(P.gte(7)))")
	assert.Contains(t, out, ".where(__.path().count(Scope.local).is(P.lte(7)))")

	out, _ = mustTranslate(t, "MATCH (a)-[:knows*]->(b) RETURN b")
	assert.Contains(t, out, "P.gte(21)")
}

func TestTranslateOptionalMatch(t *testing.T) {
	out, plan := mustTranslate(t, "MATCH (n) OPTIONAL MATCH (n)-[:knows]->(m) RETURN m")

	assert.Contains(t, out, ".coalesce(__.V()")
	assert.Contains(t, out, "__.constant('  cypher.null')")
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "m", plan.Columns[0].Name)
}

func TestTranslateMerge(t *testing.T) {
	out, _ := mustTranslate(t, "MERGE (n:person {name: 'marko'}) ON CREATE SET n.created = true")

	assert.Contains(t, out, ".coalesce(")
	assert.Contains(t, out, "__.addV('person')")
	assert.Contains(t, out, "property('name', 'marko')")
	assert.Contains(t, out, "'created'")
	assert.True(t, strings.HasSuffix(out, ".barrier().limit(0)"), out)
}

func TestTranslateSet(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) SET n.age = 30")
	assert.Contains(t, out, ".property('age', 30)")

	out, _ = mustTranslate(t, "MATCH (n) SET n.age = null")
	assert.Contains(t, out, ".properties('age').drop()")
}

func TestTranslateSetFromParameter(t *testing.T) {
	props := withParams(map[string]any{"age": int64(30), "name": "marko", "gone": nil})

	out, _ := mustTranslate(t, "MATCH (n) SET n += $props", props)
	assert.Equal(t, "g.V().as('n')"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).property('age', 30))"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).properties('gone').drop())"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).property('name', 'marko'))"+
		".barrier().limit(0)", out)

	out, _ = mustTranslate(t, "MATCH (n) SET n = $props", props)
	assert.Equal(t, "g.V().as('n')"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).properties().drop())"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).property('age', 30))"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).properties('gone').drop())"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).property('name', 'marko'))"+
		".barrier().limit(0)", out)

	_, _, err := translateQuery(t, "MATCH (n) SET n = $props", withParams(map[string]any{"props": "x"}))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUnsupported), err.Error())
}

func TestTranslateSetFromVariable(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (m), (n) SET m = n")
	reset := ".sideEffect(__.select('m').is(P.neq('  cypher.null')).properties().drop())"
	require.Contains(t, out, reset)
	copied := strings.Index(out, ".property(__.select('  FRESHID")
	require.Positive(t, copied, out)
	assert.Less(t, strings.Index(out, reset), copied, "existing properties are cleared before the copy")
	assert.Contains(t, out, ".sideEffect(__.select('n').is(P.neq('  cypher.null')).properties().as('  FRESHID")
	assert.Regexp(t, `\.select\('m'\)\.is\(P\.neq\('  cypher\.null'\)\)\.property\(__\.select\('  FRESHID\d+'\)\.key\(\), __\.select\('  FRESHID\d+'\)\.value\(\)\)`, out)

	out, _ = mustTranslate(t, "MATCH (m), (n) SET m += n")
	assert.NotContains(t, out, ".properties().drop()")
	assert.Contains(t, out, ".key(), __.select('  FRESHID")

	out, _ = mustTranslate(t, "MATCH (n) WITH n, {a: 1, b: null} AS props SET n += props")
	assert.Contains(t, out, ".unfold().as('  FRESHID")
	assert.Contains(t, out, ".select(Column.values).is(P.neq('  cypher.null')))")
	assert.Regexp(t, `\.property\(__\.select\('  FRESHID\d+'\)\.select\(Column\.keys\), __\.select\('  FRESHID\d+'\)\.select\(Column\.values\)\)`, out)
	assert.NotContains(t, out, "cypherProperties")

	out, _ = mustTranslate(t, "MATCH (n) SET n = n")
	assert.Equal(t, "g.V().as('n').barrier().limit(0)", out)
}

func TestTranslateCreateReusesBoundNodes(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{
			"CREATE (a:L), (a)-[r:T]->(b)",
			"g.addV('L').as('a').addV().as('b').addE('T').from('a').to('b').as('r').barrier().limit(0)",
		},
		{
			"CREATE (a)-[r1:T]->(b)-[r2:T]->(a)",
			"g.addV().as('a').addV().as('b').addE('T').from('a').to('b').as('r1').addE('T').from('b').to('a').as('r2').barrier().limit(0)",
		},
		{
			"MATCH (a) CREATE (a)-[r:T]->(b)",
			"g.V().as('a').addV().as('b').addE('T').from('a').to('b').as('r').barrier().limit(0)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, _ := mustTranslate(t, tt.query)
			assert.Equal(t, tt.want, out)
		})
	}

	for _, q := range []string{"CREATE (a:L), (a)-[:T]->(b)", "CREATE (a)-[:T]->(b)-[:T]->(a)"} {
		_, _, err := translateQuery(t, q)
		assert.NoError(t, err, q)
	}
}

func TestTranslateRangeAtInt64Bounds(t *testing.T) {
	out, plan := mustTranslate(t, "UNWIND range(9223372036854775806, 9223372036854775807) AS x RETURN x")
	assert.Equal(t, "g.inject(9223372036854775806, 9223372036854775807).as('x').project('x').by(__.select('x'))", out)
	assert.Equal(t, ast.TypeInteger, plan.Columns[0].Type)
}

func TestTranslateVariableLengthRelationshipList(t *testing.T) {
	rels := "__.coalesce(__.select(Pop.all, 'r'), __.constant([]))"

	out, plan := mustTranslate(t, "MATCH (a)-[r*1..2]->(b) RETURN r")
	assert.True(t, strings.HasSuffix(out, ".project('r').by("+rels+")"), out)
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, ast.TypeList, plan.Columns[0].Type)

	out, _ = mustTranslate(t, "MATCH (a)-[r*0..2]->(b) WITH a, r AS hops RETURN size(hops) AS n")
	assert.Contains(t, out, ".map("+rels+").as('hops')")
	assert.NotContains(t, out, ".select('r')")
}

func TestTranslateDelete(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) DELETE n")
	assert.Equal(t, "g.V().as('n').barrier()"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).where(__.bothE()).map(cypherException('DELETE_CONNECTED_NODE'))).barrier()"+
		".sideEffect(__.select('n').is(P.neq('  cypher.null')).drop())"+
		".barrier().limit(0)", out)

	out, _ = mustTranslate(t, "MATCH (n) DETACH DELETE n")
	assert.NotContains(t, out, "DELETE_CONNECTED_NODE")
	assert.Contains(t, out, ".drop()")
}

func TestTranslateDeleteChecksBeforeDropping(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (a)-[r:T]->(b) DELETE r, a")

	check := strings.Index(out, "DELETE_CONNECTED_NODE")
	require.Positive(t, check, out)
	assert.Less(t, check, strings.Index(out, ".drop()"), "no drop may run before the connected-node check")
	assert.Contains(t, out, ".sideEffect(__.select('r').is(P.neq('  cypher.null')).aggregate('  FRESHID")
	assert.Contains(t, out, ".where(__.bothE().where(P.without('  FRESHID")

	out, _ = mustTranslate(t, "MATCH (a)-[r:T]->(b) DETACH DELETE r, a")
	assert.NotContains(t, out, "DELETE_CONNECTED_NODE")
	assert.NotContains(t, out, "aggregate(")
}

func TestTranslateDeletedElementAccess(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) DETACH DELETE n RETURN n.name")

	assert.Contains(t, out, "cypherException('DELETED_ELEMENT_ACCESS')")
}

func TestTranslateOrderSkipLimit(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) RETURN n.name AS name ORDER BY name DESC SKIP 1 LIMIT 2")

	assert.True(t, strings.HasSuffix(out, ".order().by(__.select('name'), Order.desc).skip(1).limit(2)"), out)
}

func TestTranslateLimitParameter(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) RETURN n LIMIT $max", withParams(map[string]any{"max": int64(5)}))

	assert.True(t, strings.HasSuffix(out, ".limit(5)"), out)
}

func TestTranslateDistinct(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) RETURN DISTINCT n.name AS name")

	assert.True(t, strings.HasSuffix(out, ".dedup()"), out)
}

func TestTranslateWith(t *testing.T) {
	out, plan := mustTranslate(t, "MATCH (n) WITH n AS m, n.age AS age WHERE age > 30 RETURN m")

	assert.Contains(t, out, ".select('n').as('m')")
	assert.Contains(t, out, ".as('age')")
	assert.Contains(t, out, "P.gt(30)")
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "m", plan.Columns[0].Name)
}

func TestTranslateWithHidesEarlierVariables(t *testing.T) {
	_, _, err := translateQuery(t, "MATCH (n), (m) WITH n RETURN m")

	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUndefinedVariable), err.Error())
}

func TestTranslateAggregation(t *testing.T) {
	out, plan := mustTranslate(t, "MATCH (n) RETURN count(*) AS c")
	assert.Contains(t, out, ".fold().project(")
	assert.Contains(t, out, "__.unfold().count()")
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "c", plan.Columns[0].Name)

	out, _ = mustTranslate(t, "MATCH (n) RETURN n.city AS city, collect(n.name) AS names")
	assert.Contains(t, out, ".group().by(")
	assert.Contains(t, out, ".by(__.fold()).unfold()")
	assert.Contains(t, out, ".fold())")
}

func TestTranslateAggregateFunctions(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"MATCH (n) RETURN sum(n.x) AS s", ".sum(), __.constant(0))"},
		{"MATCH (n) RETURN avg(n.x) AS a", ".mean(), __.constant('  cypher.null'))"},
		{"MATCH (n) RETURN min(n.x) AS a", ".min(), __.constant('  cypher.null'))"},
		{"MATCH (n) RETURN max(n.x) AS a", ".max(), __.constant('  cypher.null'))"},
		{"MATCH (n) RETURN count(DISTINCT n.x) AS c", ".dedup().count()"},
		{"MATCH (n) RETURN percentileCont(n.x, 0.5) AS p", "map(cypherPercentileCont())"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, _ := mustTranslate(t, tt.query)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTranslateUnion(t *testing.T) {
	out, plan := mustTranslate(t, "RETURN 1 AS x UNION RETURN 2 AS x")
	assert.True(t, strings.HasPrefix(out, "g.inject('  cypher.start').union("), out)
	assert.True(t, strings.HasSuffix(out, ".dedup()"), out)
	require.Len(t, plan.Columns, 1)

	out, _ = mustTranslate(t, "RETURN 1 AS x UNION ALL RETURN 2 AS x")
	assert.False(t, strings.HasSuffix(out, ".dedup()"), out)
}

func TestTranslateCall(t *testing.T) {
	out, plan := mustTranslate(t, "CALL db.labels() YIELD label RETURN label")

	assert.Contains(t, out, "map(cypherProcedureCall('db.labels')).unfold())")
	assert.Contains(t, out, ".select('label').as('label')")
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "label", plan.Columns[0].Name)
}

func TestTranslateStandaloneCall(t *testing.T) {
	_, plan := mustTranslate(t, "CALL db.propertyKeys")

	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "propertyKey", plan.Columns[0].Name)
}

func TestTranslateParameters(t *testing.T) {
	out, _ := mustTranslate(t, "MATCH (n) WHERE n.age > $age RETURN n", withParams(map[string]any{"age": int64(30)}))

	assert.Contains(t, out, ".values('age').is(P.gt(age))")
}

func TestTranslateExpressions(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"RETURN 1 + 2 AS x", "by(__.constant(3))"},
		{"RETURN 'a' + 'b' AS x", "by(__.constant('ab'))"},
		{"RETURN range(1, 3) AS x", "by(__.constant([1, 2, 3]))"},
		{"MATCH (n) RETURN n.a * 2 AS x", "math('a * b')"},
		{"MATCH (n) RETURN n.a / 2 AS x", "math('a / b')"},
		{"MATCH (n) RETURN toString(n.a) AS x", "map(cypherToString())"},
		{"MATCH (n) RETURN n.a IS NULL AS x", "choose(P.eq('  cypher.null'), __.constant(true), __.constant(false))"},
		{"MATCH (n) RETURN labels(n) AS x", "label().is(P.neq('vertex')).fold()"},
		{"MATCH (n) RETURN CASE WHEN n.a = 1 THEN 'one' ELSE 'other' END AS x", "__.constant('one')"},
		{"MATCH (n) RETURN n.a STARTS WITH 'x' AS x", "startingWith('x')"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, _ := mustTranslate(t, tt.query)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTranslateExplainOption(t *testing.T) {
	_, plan := mustTranslate(t, "EXPLAIN MATCH (n) RETURN n")

	assert.Equal(t, []string{"EXPLAIN"}, plan.Options)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  ErrorCode
	}{
		{"undefined variable", "MATCH (n) RETURN m", ErrCodeUndefinedVariable},
		{"unknown function", "RETURN foo(1) AS x", ErrCodeUnknownFunction},
		{"unknown procedure", "CALL db.nope()", ErrCodeUnknownProcedure},
		{"unknown yield", "CALL db.labels() YIELD nope RETURN nope", ErrCodeUnknownYield},
		{"procedure arguments", "CALL db.labels(1)", ErrCodeProcedureArguments},
		{"multiple labels", "CREATE (n:a:b)", ErrCodeMultipleLabels},
		{"rebinding in create", "MATCH (n) CREATE (n:person)", ErrCodeAmbiguousRebinding},
		{"nested aggregation", "MATCH (n) RETURN count(count(*)) AS c", ErrCodeNestedAggregation},
		{"nondeterministic aggregate", "MATCH (n) RETURN collect(rand()) AS c", ErrCodeNondeterministicAggregate},
		{"invalid range", "RETURN range(1, 10, 0) AS x", ErrCodeInvalidRange},
		{"negative limit", "MATCH (n) RETURN n LIMIT -1", ErrCodeUnsupported},
		{"recreate bound node", "CREATE (a), (a)", ErrCodeAmbiguousRebinding},
		{"create bare bound node", "MATCH (a) CREATE (a)", ErrCodeAmbiguousRebinding},
		{"relabel bound node in chain", "CREATE (a)-[:T]->(b)-[:T]->(a:L)", ErrCodeAmbiguousRebinding},
		{"relationship as chain node", "MATCH ()-[r]->() CREATE (r)-[:T]->(b)", ErrCodeAmbiguousRebinding},
		{"oversized range", "UNWIND range(0, 9223372036854775807) AS x RETURN x", ErrCodeInvalidRange},
		{"set from scalar", "MATCH (n) SET n = 1", ErrCodeUnsupported},
		{"undirected create", "CREATE (a)-[:x]-(b)", ErrCodeUnsupported},
		{"untyped create", "CREATE (a)-[r]->(b)", ErrCodeUnsupported},
		{"aggregate in where", "MATCH (n) WHERE count(n) > 1 RETURN n", ErrCodeUnsupported},
		{"set labels", "MATCH (n) SET n:person", ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := translateQuery(t, tt.query)
			require.Error(t, err)
			assert.True(t, IsError(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestTranslateFlavors(t *testing.T) {
	q := "MATCH (n) WHERE n.name =~ 'a.*' RETURN n"

	out, _ := mustTranslate(t, q)
	assert.Contains(t, out, "cypherRegex('a.*')")

	_, _, err := translateQuery(t, q, withFlavor(flavor.GremlinPlain))
	require.Error(t, err)
	assert.True(t, flavor.IsUnsupported(err), err.Error())

	_, _, err = translateQuery(t, "MATCH (n) RETURN n.name", withFlavor(flavor.GremlinPlain))
	require.NoError(t, err)
}

func TestTranslateIsDeterministic(t *testing.T) {
	q := "MATCH (a)-[:knows]->(b) OPTIONAL MATCH (b)-[r]->(c) WITH a, count(c) AS n ORDER BY n DESC RETURN a.name AS name, n"

	first, _ := mustTranslate(t, q)
	for i := 0; i < 5; i++ {
		again, _ := mustTranslate(t, q)
		assert.Equal(t, first, again)
	}
}

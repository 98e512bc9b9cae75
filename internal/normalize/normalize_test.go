package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/parser"
)

func normalized(t *testing.T, q string) *ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(q)
	require.NoError(t, err, q)
	out, err := Normalize(stmt)
	require.NoError(t, err, q)
	return out
}

func clausesOf(t *testing.T, stmt *ast.Statement) []ast.Clause {
	t.Helper()
	sq, ok := stmt.Query.(*ast.SingleQuery)
	require.True(t, ok)
	return sq.Clauses
}

func formatAll(es []ast.Expr) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = ast.Format(e)
	}
	return out
}

func TestNormalizeIsIdempotent(t *testing.T) {
	queries := []string{
		"MATCH (n:Person {name: 'marko'})-[:KNOWS]->(m) WHERE m.age = 30 RETURN n.name, m",
		"MATCH (n) WHERE n:A AND 1 = n.p AND n.q > 2 RETURN *",
		"MATCH (n) RETURN n.name ORDER BY n.age DESC SKIP 1 LIMIT 2",
		"MATCH (n) WITH n.city AS city, count(*) AS c ORDER BY c + 1 WHERE c > 1 RETURN city",
		"MATCH (n)-[r*1..3 {w: 1}]->(m) RETURN m",
		"MATCH (a) RETURN a.x UNION MATCH (b) RETURN b.x",
		"MATCH (n) WHERE true OR n.x RETURN n",
		"UNWIND [1, 2] AS x RETURN x * 2 ORDER BY x * 2",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			once := normalized(t, q)
			twice, err := Normalize(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	stmt, err := parser.Parse("MATCH (n:L {p: 1}) WHERE n.q = 2 RETURN n.p ORDER BY n.q")
	require.NoError(t, err)
	before, err := parser.Parse("MATCH (n:L {p: 1}) WHERE n.q = 2 RETURN n.p ORDER BY n.q")
	require.NoError(t, err)

	_, err = Normalize(stmt)
	require.NoError(t, err)
	assert.Equal(t, before, stmt)
}

func TestInlineAndWhereFormsAreEquivalent(t *testing.T) {
	pairs := [][2]string{
		{"MATCH (n:Person {name: 'marko'}) RETURN n", "MATCH (n) WHERE n:Person AND n.name = 'marko' RETURN n"},
		{"MATCH (n {age: $a}) RETURN n", "MATCH (n) WHERE $a = n.age RETURN n"},
		{"MATCH (n:A:B) RETURN n", "MATCH (n:B) WHERE n:A RETURN n"},
		{"MATCH (n)-[r:T {w: 1}]->(m) RETURN r", "MATCH (n)-[r:T]->(m) WHERE r.w = 1 RETURN r"},
	}
	for _, pair := range pairs {
		t.Run(pair[0], func(t *testing.T) {
			assert.Equal(t, normalized(t, pair[0]), normalized(t, pair[1]))
		})
	}
}

func TestPatternFoldingKeepsOtherTerms(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n:L)-[r*1..2 {w: 1}]->(m) WHERE n.p = 1 AND n.q > 2 AND r.w = 2 AND m.x = n.x RETURN n"))
	match := cs[0].(*ast.Match)

	part := match.Patterns[0]
	assert.Equal(t, []string{"n:L", "n.p = 1"}, formatAll(part.Nodes[0].Predicates))
	assert.Nil(t, part.Nodes[0].Labels)
	assert.Equal(t, []string{"r.w = 1"}, formatAll(part.Rels[0].Predicates), "variable-length relationships only take inline properties")
	assert.Nil(t, part.Nodes[1].Predicates)
	assert.Equal(t, "n.q > 2 AND r.w = 2 AND m.x = n.x", ast.Format(match.Where))
}

func TestPatternFoldingNamesAnonymousElements(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (:L)-[:T]->() RETURN 1"))
	part := cs[0].(*ast.Match).Patterns[0]

	assert.Equal(t, "  UNNAMED1", part.Nodes[0].Variable)
	assert.Equal(t, "  UNNAMED2", part.Rels[0].Variable)
	assert.Equal(t, "  UNNAMED3", part.Nodes[1].Variable)
	assert.Equal(t, []string{"T"}, part.Rels[0].Types)
}

func TestPatternFoldingLeavesCreateAlone(t *testing.T) {
	cs := clausesOf(t, normalized(t, "CREATE (n:L {p: 1})"))
	node := cs[0].(*ast.Create).Patterns[0].Nodes[0]
	assert.Equal(t, []string{"L"}, node.Labels)
	assert.NotNil(t, node.Properties)
	assert.Nil(t, node.Predicates)
}

func TestParameterMapStaysInline(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n $props) RETURN n"))
	node := cs[0].(*ast.Match).Patterns[0].Nodes[0]
	assert.IsType(t, &ast.Parameter{}, node.Properties)
}

func TestOutputNaming(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (a) RETURN a, a.name, a.age AS age, count(*)"))
	ret := cs[1].(*ast.Projection)

	var names []string
	for _, item := range ret.Items {
		names = append(names, item.Alias)
	}
	assert.Equal(t, []string{"a", "a.name", "age", "count(*)"}, names)
}

func TestReturnStarExpandsSortedUserVariables(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (b)-[r]->(a), ()-->() UNWIND [1] AS x RETURN *"))
	ret := cs[len(cs)-1].(*ast.Projection)
	assert.False(t, ret.Star)

	var names []string
	for _, item := range ret.Items {
		names = append(names, item.Alias)
	}
	assert.Equal(t, []string{"a", "b", "r", "x"}, names)
}

func TestReturnStarWithNothingInScope(t *testing.T) {
	stmt, err := parser.Parse("RETURN *")
	require.NoError(t, err)
	_, err = Normalize(stmt)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ErrCodeEmptyProjection, nerr.Code)
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"true AND null", "null"},
		{"false AND null", "false"},
		{"true OR null", "true"},
		{"false OR null", "null"},
		{"NOT null", "null"},
		{"null XOR null", "null"},
		{"n.x AND true", "n.x"},
		{"n.x OR true", "true"},
		{"n.x AND false", "false"},
		{"toInteger(n.x) > 1 AND false", "toInteger(n.x) > 1 AND false"},
		{"n.x XOR true", "NOT n.x"},
		{"1 = 0", "false"},
		{"1 < 'a'", "null"},
		{"null IS NULL", "true"},
		{"NOT (1 = 1) OR n.x", "n.x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			stmt, err := parser.Parse("RETURN " + tt.in)
			require.NoError(t, err)
			item := stmt.Query.(*ast.SingleQuery).Clauses[0].(*ast.Projection).Items[0]
			assert.Equal(t, tt.want, ast.Format(Fold(item.Expr)))
		})
	}
}

func TestConstantWhereFilters(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n) WHERE true RETURN n"))
	assert.Nil(t, cs[0].(*ast.Match).Where)

	cs = clausesOf(t, normalized(t, "MATCH (n) WHERE 1 = 0 RETURN n"))
	assert.Equal(t, "false", ast.Format(cs[0].(*ast.Match).Where), "contradictions are kept so the clause still binds n")

	cs = clausesOf(t, normalized(t, "MATCH (n) WHERE null RETURN n"))
	assert.Equal(t, "false", ast.Format(cs[0].(*ast.Match).Where))
}

func TestConstantFoldingAfterDelete(t *testing.T) {
	last := func(cs []ast.Clause) *ast.Projection { return cs[len(cs)-1].(*ast.Projection) }

	cs := clausesOf(t, normalized(t, "MATCH (n) RETURN n.x OR true AS v, n:A AND false AS w"))
	assert.Equal(t, "true", ast.Format(last(cs).Items[0].Expr))
	assert.Equal(t, "false", ast.Format(last(cs).Items[1].Expr))

	cs = clausesOf(t, normalized(t, "MATCH (n) DETACH DELETE n RETURN n.x OR true AS v, n:A AND false AS w"))
	assert.Equal(t, "n.x OR true", ast.Format(last(cs).Items[0].Expr), "reading a deleted node raises, so it must still run")
	assert.Equal(t, "n:A AND false", ast.Format(last(cs).Items[1].Expr))

	cs = clausesOf(t, normalized(t, "MATCH (n) DELETE n WITH n WHERE n.x AND false RETURN 1 AS one"))
	for _, c := range cs {
		if p, ok := c.(*ast.Projection); ok && p.Kind == ast.With {
			assert.Equal(t, "n.x AND false", ast.Format(p.Where))
		}
	}
}

func TestConstantFoldingKeepsDisplayName(t *testing.T) {
	cs := clausesOf(t, normalized(t, "RETURN true OR false"))
	item := cs[0].(*ast.Projection).Items[0]
	assert.Equal(t, "true OR false", item.Alias)
	assert.Equal(t, "true", ast.Format(item.Expr))
}

func TestHoistOrderByExpression(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n) RETURN n.name AS name, n.age ORDER BY n.age DESC, n.x SKIP 1 LIMIT 2"))
	require.Len(t, cs, 3)

	inner := cs[1].(*ast.Projection)
	assert.Equal(t, ast.With, inner.Kind)
	require.Len(t, inner.Items, 3)
	assert.Equal(t, "  GENERATED1", inner.Items[0].Alias)
	assert.Equal(t, "n.name", ast.Format(inner.Items[0].Expr))
	assert.Equal(t, "  GENERATED2", inner.Items[1].Alias)
	assert.Equal(t, "n.x", ast.Format(inner.Items[2].Expr))

	require.Len(t, inner.OrderBy, 2)
	assert.Equal(t, "  GENERATED2", inner.OrderBy[0].Expr.(*ast.Variable).Name, "n.age reuses its item column")
	assert.True(t, inner.OrderBy[0].Descending)
	assert.Equal(t, "  GENERATED3", inner.OrderBy[1].Expr.(*ast.Variable).Name)
	assert.NotNil(t, inner.Skip)
	assert.NotNil(t, inner.Limit)

	outer := cs[2].(*ast.Projection)
	assert.Equal(t, ast.Return, outer.Kind)
	require.Len(t, outer.Items, 2)
	assert.Equal(t, "name", outer.Items[0].Alias)
	assert.Equal(t, "n.age", outer.Items[1].Alias)
	assert.Equal(t, "  GENERATED1", outer.Items[0].Expr.(*ast.Variable).Name)
	assert.Nil(t, outer.OrderBy)
	assert.Nil(t, outer.Skip)
}

func TestHoistResolvesItemAliases(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n) WITH n.age AS a ORDER BY a + 1 WHERE a > 1 RETURN a"))
	inner := cs[1].(*ast.Projection)
	require.Len(t, inner.Items, 2)
	assert.Equal(t, "n.age + 1", ast.Format(inner.Items[1].Expr))

	outer := cs[2].(*ast.Projection)
	assert.Equal(t, ast.With, outer.Kind)
	assert.Equal(t, "a > 1", ast.Format(outer.Where))
}

func TestNoHoistForPlainNames(t *testing.T) {
	cs := clausesOf(t, normalized(t, "MATCH (n) RETURN n.name AS name ORDER BY name"))
	require.Len(t, cs, 2)
}

func TestAggregationErrors(t *testing.T) {
	tests := []struct {
		q    string
		code ErrorCode
	}{
		{"MATCH (n) RETURN count(count(*))", ErrCodeNestedAggregation},
		{"MATCH (n) RETURN sum(1 + max(n.x))", ErrCodeNestedAggregation},
		{"MATCH (n) RETURN collect(rand())", ErrCodeNondeterministicAggregate},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			stmt, err := parser.Parse(tt.q)
			require.NoError(t, err)
			_, err = Normalize(stmt)
			var nerr *Error
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tt.code, nerr.Code)
		})
	}
}

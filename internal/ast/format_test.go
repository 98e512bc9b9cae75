package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func prop(v, k string) *Property {
	return &Property{Subject: &Variable{Name: v}, Key: k}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"property", prop("a", "name"), "a.name"},
		{"string literal", &Literal{Value: "it's"}, `'it\'s'`},
		{"float keeps point", &Literal{Value: float64(1)}, "1.0"},
		{"null", Null(), "null"},
		{"parameter", &Parameter{Name: "p"}, "$p"},
		{"count star", &CountStar{}, "count(*)"},
		{
			"function",
			&FunctionCall{Name: "toUpper", Args: []Expr{prop("n", "name")}},
			"toUpper(n.name)",
		},
		{
			"distinct aggregate",
			&FunctionCall{Name: "count", Distinct: true, Args: []Expr{&Variable{Name: "n"}}},
			"count(DISTINCT n)",
		},
		{
			"precedence keeps parentheses",
			&Binary{Op: OpMul, Left: &Binary{Op: OpAdd, Left: &Literal{Value: int64(1)}, Right: &Literal{Value: int64(2)}}, Right: &Literal{Value: int64(3)}},
			"(1 + 2) * 3",
		},
		{
			"no redundant parentheses",
			&Binary{Op: OpAdd, Left: &Literal{Value: int64(1)}, Right: &Binary{Op: OpMul, Left: &Literal{Value: int64(2)}, Right: &Literal{Value: int64(3)}}},
			"1 + 2 * 3",
		},
		{
			"labels",
			&HasLabels{Subject: &Variable{Name: "n"}, Labels: []string{"A", "B"}},
			"n:A:B",
		},
		{
			"map literal",
			&MapLiteral{Keys: []string{"a", "b c"}, Values: []Expr{&Literal{Value: int64(1)}, &Literal{Value: true}}},
			"{a: 1, `b c`: true}",
		},
		{
			"is not null",
			&IsNull{Operand: prop("n", "p"), Negated: true},
			"n.p IS NOT NULL",
		},
		{
			"slice",
			&Slice{Subject: &Variable{Name: "l"}, From: &Literal{Value: int64(1)}},
			"l[1..]",
		},
		{
			"list comprehension",
			&ListComprehension{Variable: "x", Source: &Variable{Name: "l"}, Where: &Binary{Op: OpGt, Left: &Variable{Name: "x"}, Right: &Literal{Value: int64(1)}}},
			"[x IN l WHERE x > 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.expr))
		})
	}
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "name", FormatName("name"))
	assert.Equal(t, "`a.name`", FormatName("a.name"))
	assert.Equal(t, "`1x`", FormatName("1x"))
}

func TestConjunctsAndAndAll(t *testing.T) {
	a := &Variable{Name: "a"}
	b := &Variable{Name: "b"}
	c := &Variable{Name: "c"}

	joined := AndAll([]Expr{a, b, c})
	assert.Equal(t, []Expr{a, b, c}, Conjuncts(joined))
	assert.Nil(t, AndAll(nil))
	assert.Nil(t, Conjuncts(nil))
}

func TestFreeVariablesSkipsComprehensionBinding(t *testing.T) {
	e := &Binary{
		Op:   OpAdd,
		Left: prop("n", "x"),
		Right: &ListComprehension{
			Variable:   "x",
			Source:     &Variable{Name: "list"},
			Projection: &Binary{Op: OpMul, Left: &Variable{Name: "x"}, Right: &Variable{Name: "k"}},
		},
	}

	assert.Equal(t, []string{"n", "list", "k"}, FreeVariables(e))
}

func TestContainsAggregate(t *testing.T) {
	agg := &FunctionCall{Name: "COUNT", Args: []Expr{&Variable{Name: "n"}}}

	assert.True(t, ContainsAggregate(&Binary{Op: OpAdd, Left: agg, Right: &Literal{Value: int64(1)}}))
	assert.False(t, ContainsAggregate(prop("n", "x")))
	assert.True(t, ContainsAggregate(&CountStar{}))
}

func TestRewriteDoesNotModifyInput(t *testing.T) {
	orig := &Binary{Op: OpEq, Left: prop("n", "p"), Right: &Parameter{Name: "x"}}

	out := Rewrite(orig, func(e Expr) Expr {
		if p, ok := e.(*Parameter); ok {
			return &Literal{Value: p.Name}
		}
		return e
	})

	assert.Equal(t, "n.p = $x", Format(orig))
	assert.Equal(t, "n.p = 'x'", Format(out))
}

func TestRangeFixed(t *testing.T) {
	two := int64(2)
	three := int64(3)

	assert.True(t, (&Range{Min: &two, Max: &two}).Fixed())
	assert.False(t, (&Range{Min: &two, Max: &three}).Fixed())
	assert.False(t, (&Range{}).Fixed())
}

func TestPatternVariables(t *testing.T) {
	p := &PatternPart{
		PathVariable: "p",
		Nodes:        []*NodePattern{{Variable: "a"}, {}, {Variable: "c"}},
		Rels:         []*RelPattern{{Variable: "r"}, {}},
	}

	assert.Equal(t, []string{"a", "r", "c", "p"}, p.Variables())
}

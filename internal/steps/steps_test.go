package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_FirstWins(t *testing.T) {
	var e Errors
	assert.NoError(t, e.Err())

	e.Record(nil)
	assert.NoError(t, e.Err())

	first := errors.New("first")
	e.Record(first)
	e.Record(errors.New("second"))
	assert.Same(t, first, e.Err())
}

func TestPredicates(t *testing.T) {
	assert.Equal(t, P{Name: "eq", Args: []any{1}}, Eq(1))
	assert.Equal(t, P{Name: "within", Args: []any{1, 2}}, Within(1, 2))
	assert.True(t, Regex("a.*").Custom)
	assert.False(t, StartingWith("a").Custom)
	assert.Equal(t, "a.*", Regex("a.*").Arg())
	assert.Nil(t, IsNode().Arg())
}

func TestNegate(t *testing.T) {
	tests := []struct {
		in   P
		want string
	}{
		{Eq(1), "neq"},
		{Lt(1), "gte"},
		{Gt(1), "lte"},
		{Within(1), "without"},
	}
	for _, tt := range tests {
		t.Run(tt.in.Name, func(t *testing.T) {
			got, ok := tt.in.Negate()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, tt.in.Args, got.Args)
		})
	}

	_, ok := Between(1, 2).Negate()
	assert.False(t, ok)
	_, ok = IsNode().Negate()
	assert.False(t, ok)
}

package extension

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/steps"
)

func TestThreeValuedLogic(t *testing.T) {
	values := []any{true, false, nil}
	and := [3][3]any{
		{true, false, nil},
		{false, false, false},
		{nil, false, nil},
	}
	or := [3][3]any{
		{true, true, true},
		{true, false, nil},
		{true, nil, nil},
	}
	xor := [3][3]any{
		{false, true, nil},
		{true, false, nil},
		{nil, nil, nil},
	}
	for i, a := range values {
		for j, b := range values {
			assert.Equal(t, and[i][j], And(a, b), "%v AND %v", a, b)
			assert.Equal(t, or[i][j], Or(a, b), "%v OR %v", a, b)
			assert.Equal(t, xor[i][j], Xor(a, b), "%v XOR %v", a, b)
		}
	}
	assert.Equal(t, false, Not(true))
	assert.Equal(t, true, Not(false))
	assert.Nil(t, Not(nil))
}

func TestEqual(t *testing.T) {
	assert.Equal(t, true, Equal(int64(1), 1.0))
	assert.Equal(t, false, Equal("1", int64(1)))
	assert.Nil(t, Equal(steps.Null, int64(1)))
	assert.Nil(t, Equal([]any{int64(1), nil}, []any{int64(1), int64(2)}))
	assert.Equal(t, false, Equal([]any{int64(1), nil}, []any{int64(2), int64(2)}))
	assert.Equal(t, true, Equal(map[string]any{"a": "x"}, map[string]any{"a": "x"}))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(int64(1), 2.5)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare("b", "a")
	require.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare("a", int64(1))
	assert.False(t, ok)
	_, ok = Compare(nil, int64(1))
	assert.False(t, ok)
}

func TestCasts(t *testing.T) {
	tests := []struct {
		name string
		cast func(any) (any, error)
		in   []any
		want []any
	}{
		{"toString", ToString,
			[]any{int64(13), 3.14, "Hello", true, nil, 1.0},
			[]any{"13", "3.14", "Hello", "true", steps.Null, "1.0"}},
		{"toInteger", ToInteger,
			[]any{int64(13), "9007199254740993", 3.14, "13", "3.14", "Hello", steps.Null},
			[]any{int64(13), int64(9007199254740993), int64(3), int64(13), int64(3), steps.Null, steps.Null}},
		{"toFloat", ToFloat,
			[]any{int64(13), 3.14, "13", "3.14", "Hello", nil},
			[]any{13.0, 3.14, 13.0, 3.14, steps.Null, steps.Null}},
		{"toBoolean", ToBoolean,
			[]any{true, false, "True", "False", "13", "3.14", "Hello", nil},
			[]any{true, false, true, false, steps.Null, steps.Null, steps.Null, steps.Null}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, in := range tt.in {
				got, err := tt.cast(in)
				require.NoError(t, err, "input %v", in)
				assert.Equal(t, tt.want[i], got, "input %v", in)
			}
		})
	}
}

func TestInvalidCasts(t *testing.T) {
	tests := []struct {
		name string
		cast func(any) (any, error)
		in   []any
	}{
		{"toString", ToString, []any{[]any{}, map[string]any{"a": int64(1)}}},
		{"toInteger", ToInteger, []any{true, false, []any{}, map[string]any{"a": int64(1)}}},
		{"toFloat", ToFloat, []any{true, false, []any{}, map[string]any{"a": int64(1)}}},
		{"toBoolean", ToBoolean, []any{int64(13), 3.14, []any{}, map[string]any{"a": int64(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range tt.in {
				_, err := tt.cast(in)
				require.Error(t, err, "input %v", in)
				assert.True(t, IsCastError(err))
				assert.Contains(t, err.Error(), "Cannot convert")
			}
		})
	}
}

func TestContainerIndex(t *testing.T) {
	list := []any{int64(1), int64(2), int64(3)}
	tests := []struct {
		name string
		in   []any
		want any
	}{
		{"list", []any{list, int64(1)}, int64(2)},
		{"negative", []any{list, int64(-1)}, int64(3)},
		{"out of range", []any{list, int64(5)}, steps.Null},
		{"map", []any{map[string]any{"a": "x"}, "a"}, "x"},
		{"missing key", []any{map[string]any{"a": "x"}, "b"}, steps.Null},
		{"node", []any{&Vertex{Properties: map[string]any{"name": "n"}}, "name"}, "n"},
		{"null container", []any{steps.Null, int64(0)}, steps.Null},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainerIndex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ContainerIndex([]any{list, "a"})
	assert.True(t, HasCode(err, ErrCodeInvalidArgument))
}

func TestListSlice(t *testing.T) {
	list := []any{int64(0), int64(1), int64(2), int64(3)}
	tests := []struct {
		name     string
		from, to any
		want     []any
	}{
		{"closed", int64(1), int64(3), []any{int64(1), int64(2)}},
		{"open start", steps.Null, int64(2), []any{int64(0), int64(1)}},
		{"open end", int64(2), steps.Null, []any{int64(2), int64(3)}},
		{"negative", int64(-2), steps.Null, []any{int64(2), int64(3)}},
		{"clamped", int64(-10), int64(10), list},
		{"empty", int64(3), int64(1), []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListSlice([]any{list, tt.from, tt.to})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlus(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want any
	}{
		{"integers", int64(1), int64(2), int64(3)},
		{"mixed", int64(1), 0.5, 1.5},
		{"strings", "a", "b", "ab"},
		{"string and number", "a", int64(1), "a1"},
		{"lists", []any{int64(1)}, []any{int64(2)}, []any{int64(1), int64(2)}},
		{"append", []any{int64(1)}, "x", []any{int64(1), "x"}},
		{"prepend", "x", []any{int64(1)}, []any{"x", int64(1)}},
		{"null", steps.Null, int64(1), steps.Null},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plus([]any{tt.a, tt.b})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSize(t *testing.T) {
	got, err := Size("héllo")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = Size([]any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = Size(steps.Null)
	require.NoError(t, err)
	assert.Equal(t, steps.Null, got)

	_, err = Size(int64(1))
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	got, err := Range([]any{int64(0), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(1), int64(2), int64(3)}, got)

	got, err = Range([]any{int64(3), int64(0), int64(-2)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(1)}, got)

	got, err = Range([]any{int64(3), int64(0)})
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	_, err = Range([]any{int64(0), int64(3), int64(0)})
	assert.True(t, HasCode(err, ErrCodeInvalidRange))

	_, err = Range([]any{int64(0), 1.5})
	assert.True(t, HasCode(err, ErrCodeInvalidRange))
}

func TestRange_Extremes(t *testing.T) {
	got, err := Range([]any{int64(math.MaxInt64 - 1), int64(math.MaxInt64)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(math.MaxInt64 - 1), int64(math.MaxInt64)}, got)

	got, err = Range([]any{int64(math.MinInt64 + 1), int64(math.MinInt64), int64(-1)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(math.MinInt64 + 1), int64(math.MinInt64)}, got)

	got, err = Range([]any{int64(math.MinInt64), int64(math.MaxInt64), int64(math.MaxInt64)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(math.MinInt64), int64(-1), int64(math.MaxInt64 - 1)}, got)

	got, err = Range([]any{int64(math.MaxInt64), int64(0), int64(math.MinInt64)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(math.MaxInt64)}, got)
}

func TestRange_TooLarge(t *testing.T) {
	_, err := Range([]any{int64(0), int64(math.MaxInt64)})
	assert.True(t, HasCode(err, ErrCodeInvalidRange))

	_, err = Range([]any{int64(math.MaxInt64), int64(math.MinInt64), int64(-1)})
	assert.True(t, HasCode(err, ErrCodeInvalidRange))

	got, err := Range([]any{int64(1), int64(MaxRangeSize)})
	require.NoError(t, err)
	assert.Len(t, got, MaxRangeSize)

	_, err = Range([]any{int64(0), int64(MaxRangeSize)})
	assert.True(t, HasCode(err, ErrCodeInvalidRange))
}

func TestPercentiles(t *testing.T) {
	values := []any{int64(10), int64(20), int64(30), steps.Null, int64(40)}

	got, err := PercentileCont([]any{values, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 25.0, got)

	got, err = PercentileDisc([]any{values, 0.5})
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)

	got, err = PercentileDisc([]any{values, 0.0})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	got, err = PercentileCont([]any{[]any{}, 0.5})
	require.NoError(t, err)
	assert.Equal(t, steps.Null, got)

	for _, p := range []any{-0.1, 1.5} {
		_, err = PercentileCont([]any{values, p})
		assert.True(t, HasCode(err, ErrCodePercentileRange), "fraction %v", p)
		_, err = PercentileDisc([]any{values, p})
		assert.True(t, HasCode(err, ErrCodePercentileRange), "fraction %v", p)
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNode(&Vertex{}))
	assert.False(t, IsNode(&Edge{}))
	assert.True(t, IsRelationship(&Edge{}))
	assert.True(t, IsString("x"))
	assert.False(t, IsString(steps.Null))

	assert.True(t, StartsWith("hello", "he"))
	assert.False(t, StartsWith(steps.Null, "he"))
	assert.False(t, EndsWith("hello", nil))
	assert.True(t, Contains("hello", "ll"))

	ok, err := Regex("abc", "a.c")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Regex("xabcx", "a.c")
	require.NoError(t, err)
	assert.False(t, ok, "regex must match the whole string")

	_, err = Regex("a", "(")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := Default()

	fn, ok := r.Function(steps.ToInteger().Name)
	require.True(t, ok)
	got, err := fn("42", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	fn, ok = r.Function("cypherException")
	require.True(t, ok)
	_, err = fn(steps.Start, []any{string(ErrCodeDivisionByZero)})
	assert.True(t, HasCode(err, ErrCodeDivisionByZero))
	assert.Contains(t, err.Error(), "/ by zero")

	p, ok := r.Predicate(steps.Regex("a+").Name)
	require.True(t, ok)
	matched, err := p("aaa", []any{"a+"})
	require.NoError(t, err)
	assert.True(t, matched)

	_, ok = r.Function("cypherNope")
	assert.False(t, ok)
}

func TestRegistryWithFunctionCopies(t *testing.T) {
	base := Default()
	extended := base.WithFunction("custom", func(v any, _ []any) (any, error) { return v, nil })

	_, ok := extended.Function("custom")
	assert.True(t, ok)
	_, ok = base.Function("custom")
	assert.False(t, ok)
	assert.Contains(t, extended.Names(), "cypherRegex")
}

package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/parser"
	"github.com/roach88/cyphergremlin/internal/translate"
)

func TestRun_Basics(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/basics.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Cases, 4)

	assert.Equal(t, "basics-000001", result.Cases[0].RequestID)
	assert.Equal(t, "basics-000003", result.Cases[2].RequestID)

	undefined, ok := result.Case("undefined")
	require.True(t, ok)
	assert.Equal(t, "UNDEFINED_VARIABLE", undefined.Error)
	assert.Empty(t, undefined.RequestID)
}

func TestRun_Procedures(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/procedures.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Flavors(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/flavors.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	c, ok := result.Case("regex_plain")
	require.True(t, ok)
	assert.Equal(t, ErrUnsupported, c.Error)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectations are reported per case",
		Cases: []Case{
			{
				Name:   "wrong_translation",
				Query:  "MATCH (n:person) RETURN n",
				Expect: &Expect{Translation: "g.V()"},
			},
			{
				Name:   "wrong_columns",
				Query:  "MATCH (n:person) RETURN n",
				Expect: &Expect{Columns: []ColumnExpect{{Name: "m", Type: "NODE"}}},
			},
			{
				Name:   "expected_failure",
				Query:  "MATCH (n:person) RETURN n",
				Expect: &Expect{Error: "UNDEFINED_VARIABLE"},
			},
			{
				Name:  "unexpected_failure",
				Query: "MATCH (n) RETURN m",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "case wrong_translation: translation mismatch")
	assert.Contains(t, result.Errors[1], "case wrong_columns: columns")
	assert.Contains(t, result.Errors[2], "expected error UNDEFINED_VARIABLE")
	assert.Contains(t, result.Errors[3], "case unexpected_failure: unexpected error")
}

func TestRun_Bytecode(t *testing.T) {
	scenario := &Scenario{
		Name:        "bytecode",
		Description: "Bytecode encoding",
		Cases: []Case{
			{
				Name:     "inject",
				Query:    "UNWIND [1, 2, 3] AS x RETURN x",
				Encoding: "bytecode",
				Expect:   &Expect{Contains: []string{`"@type":"g:Bytecode"`, `["inject",`}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MissingProcedureFile(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing",
		Description: "Procedure file does not exist",
		Procedures:  []string{"testdata/procedures/nope.yaml"},
		Cases:       []Case{{Name: "a", Query: "RETURN 1"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load procedures")
}

func TestRun_Reproducible(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/basics.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "UNDEFINED_VARIABLE", ErrorCode(&translate.Error{Code: translate.ErrCodeUndefinedVariable, Message: "x"}))
	assert.Equal(t, ErrSyntax, ErrorCode(&parser.SyntaxError{Line: 1, Column: 1, Message: "x"}))
	assert.Equal(t, ErrOther, ErrorCode(errors.New("boom")))

	_, err := flavor.Lookup("neptune")
	require.Error(t, err)
	assert.Equal(t, ErrOther, ErrorCode(err))
}

func TestConvertParams(t *testing.T) {
	got := convertParams(map[string]interface{}{
		"n":    5,
		"list": []interface{}{1, "a"},
		"map":  map[string]interface{}{"k": 2},
		"f":    1.5,
	})
	assert.Equal(t, map[string]any{
		"n":    int64(5),
		"list": []any{int64(1), "a"},
		"map":  map[string]any{"k": int64(2)},
		"f":    1.5,
	}, got)
	assert.Nil(t, convertParams(nil))
}

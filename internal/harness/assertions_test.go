package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchLabel = "g.V().as('n').where(__.select('n').hasLabel('person')).project('n').by(__.select('n'))"

func sampleResult() *Result {
	r := NewResult()
	r.AddCase(CaseResult{Name: "a", Translation: matchLabel})
	r.AddCase(CaseResult{Name: "b", Translation: matchLabel})
	r.AddCase(CaseResult{Name: "c", Translation: "g.inject(1)"})
	r.AddCase(CaseResult{Name: "bad", Error: "UNDEFINED_VARIABLE", Message: "UNDEFINED_VARIABLE: Variable `m` not defined"})
	return r
}

func TestAssertContains(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertContains(r, Assertion{Type: AssertContains, Case: "a", Steps: []string{"hasLabel('person')", "project('n')"}}))

	err := assertContains(r, Assertion{Type: AssertContains, Case: "a", Steps: []string{"outE()"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `fragment "outE()"`)
	assert.Contains(t, err.Error(), matchLabel)
}

func TestAssertContains_FailedCase(t *testing.T) {
	err := assertContains(sampleResult(), Assertion{Type: AssertContains, Case: "bad", Steps: []string{"g.V()"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Variable `m` not defined")
}

func TestAssertContains_UnknownCase(t *testing.T) {
	err := assertContains(sampleResult(), Assertion{Type: AssertContains, Case: "zzz", Steps: []string{"g.V()"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such case")
}

func TestAssertStepOrder(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertStepOrder(r, Assertion{Case: "a", Steps: []string{"g.V()", "where(", "project('n')"}}))

	err := assertStepOrder(r, Assertion{Case: "a", Steps: []string{"project('n')", "g.V()"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g.V() appears before project('n')")

	err = assertStepOrder(r, Assertion{Case: "a", Steps: []string{"g.E()"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing step: g.E()")
}

func TestAssertStepCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertStepCount(r, Assertion{Case: "a", Step: "select('n')", Count: 2}))
	assert.NoError(t, assertStepCount(r, Assertion{Case: "a", Step: "outE()", Count: 0}))

	err := assertStepCount(r, Assertion{Case: "a", Step: "select('n')", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertSameTranslation(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertSameTranslation(r, Assertion{Cases: []string{"a", "b"}}))

	err := assertSameTranslation(r, Assertion{Cases: []string{"a", "c"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c translates like a")
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertContains, Case: "a", Steps: []string{"g.V()"}},
		{Type: AssertStepCount, Case: "c", Step: "inject", Count: 2},
		{Type: AssertDeterministic},
		{Type: "trace_order"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "Assertion failed: step_count")
	assert.Contains(t, errs[1], "requires a harness context")
	assert.Contains(t, errs[2], `unknown assertion type "trace_order"`)
}

func TestAssertRerun_Cached(t *testing.T) {
	scenario := &Scenario{
		Name:        "cached",
		Description: "Rerun through the cache",
		Cases: []Case{
			{Name: "a", Query: "MATCH (n:person) RETURN n"},
			{Name: "bad", Query: "MATCH (n) RETURN m", Expect: &Expect{Error: "UNDEFINED_VARIABLE"}},
		},
		Assertions: []Assertion{{Type: AssertCached}, {Type: AssertDeterministic}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{Type: AssertContains, Expected: "x", Actual: "y", Translation: "g.V()"}
	assert.Equal(t, "Assertion failed: contains\n  Expected: x\n  Actual: y\n\nTranslation:\n  g.V()\n", err.Error())
}

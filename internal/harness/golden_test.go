package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/translate"
)

func TestRunWithGolden_Basics(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/basics.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_Basics -update
	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_FromResult(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/basics.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "basics", result))
}

func TestMarshalSnapshot(t *testing.T) {
	snapshot := Snapshot{
		ScenarioName: "snap",
		Cases: []CaseResult{
			{
				Name:        "a",
				RequestID:   "snap-000001",
				Translation: "g.V().has('age', gt(1)).as('n')",
				Columns:     translate.ReturnTable{{Name: "n", Type: ast.TypeNode}},
			},
			{Name: "b", Error: "UNSUPPORTED", Message: "UNSUPPORTED: a < b & c"},
		},
	}

	want := `{
  "scenario_name": "snap",
  "cases": [
    {
      "name": "a",
      "request_id": "snap-000001",
      "translation": "g.V().has('age', gt(1)).as('n')",
      "columns": [
        {
          "name": "n",
          "type": "NODE"
        }
      ]
    },
    {
      "name": "b",
      "error": "UNSUPPORTED",
      "message": "UNSUPPORTED: a < b & c"
    }
  ]
}
`
	data, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	again, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

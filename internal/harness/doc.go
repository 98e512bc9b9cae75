// Package harness provides conformance testing for query translation.
//
// The harness loads procedure signatures, translates every case of a
// scenario through the facade, checks each case against its expectations
// and evaluates scenario-wide assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	procedures:
//	  - path/to/signatures.yaml
//	flavor: gremlin
//	cases:
//	  - name: match_label
//	    query: MATCH (n:person) RETURN n
//	    expect:
//	      translation: "g.V().as('n')..."
//	      columns: [{name: n, type: NODE}]
//	  - name: limit
//	    query: MATCH (n) RETURN n LIMIT $max
//	    params: { max: 5 }
//	    expect:
//	      contains: [".limit(5)"]
//	  - name: undefined
//	    query: MATCH (n) RETURN m
//	    expect:
//	      error: UNDEFINED_VARIABLE
//	assertions:
//	  - type: step_order
//	    case: match_label
//	    steps: ["V()", "hasLabel('person')", "project('n')"]
//	  - type: deterministic
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - contains: Verifies a case translation contains every listed fragment
//   - step_order: Verifies fragments appear in the case translation in order
//   - step_count: Verifies a fragment appears exactly N times
//   - same_translation: Verifies the listed cases translate identically
//   - deterministic: Translates every case again and compares
//   - cached: Translates every case again through the cache and compares
//
// # Deterministic Testing
//
// Request IDs come from testutil.SequentialIDs instead of UUIDv7, so the
// same scenario produces byte-identical snapshots for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/basic.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness

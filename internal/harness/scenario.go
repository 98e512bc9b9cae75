package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/flavor"
)

// Scenario defines a conformance test scenario: a list of queries with
// their expected translations, plus assertions over the whole set.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Procedures lists signature files (.cue or .yaml) registered on top
	// of the builtins. Paths are relative to the scenario file location.
	Procedures []string `yaml:"procedures,omitempty"`

	// Flavor is the default target flavor for cases. Empty means gremlin.
	Flavor string `yaml:"flavor,omitempty"`

	// Cases are translated in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the translated cases as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Case is one query to translate.
type Case struct {
	// Name identifies the case within the scenario.
	Name string `yaml:"name"`

	// Query is the query text.
	Query string `yaml:"query"`

	// Params are bound to $name references.
	Params map[string]interface{} `yaml:"params,omitempty"`

	// Flavor overrides the scenario flavor.
	Flavor string `yaml:"flavor,omitempty"`

	// Encoding is "text" (default) or "bytecode".
	Encoding string `yaml:"encoding,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the case only has to translate without error.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies expected translation behavior. Only the fields that are
// set are checked.
type Expect struct {
	// Translation is the exact expected output.
	Translation string `yaml:"translation,omitempty"`

	// Contains lists fragments the output must contain.
	Contains []string `yaml:"contains,omitempty"`

	// Columns is the expected return table.
	Columns []ColumnExpect `yaml:"columns,omitempty"`

	// Options is the expected statement option list.
	Options []string `yaml:"options,omitempty"`

	// Error is the expected error code, e.g. UNDEFINED_VARIABLE,
	// SYNTAX_ERROR or UNSUPPORTED_ON_FLAVOR.
	Error string `yaml:"error,omitempty"`
}

// ColumnExpect is an expected return column.
type ColumnExpect struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Assertion validates the scenario's translations as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "contains": Check case output contains every fragment in Steps
	// - "step_order": Check fragments in Steps appear in order
	// - "step_count": Check Step appears exactly Count times
	// - "same_translation": Check all Cases translate identically
	// - "deterministic": Translate every case again and compare
	// - "cached": Translate every case again through the cache and compare
	Type string `yaml:"type"`

	// Case names the case to inspect (contains, step_order, step_count).
	Case string `yaml:"case,omitempty"`

	// Steps are output fragments (contains, step_order).
	Steps []string `yaml:"steps,omitempty"`

	// Step is the fragment to count (step_count).
	Step string `yaml:"step,omitempty"`

	// Count is the expected number of occurrences (step_count).
	Count int `yaml:"count,omitempty"`

	// Cases are the cases to compare (same_translation).
	Cases []string `yaml:"cases,omitempty"`
}

// Assertion type constants.
const (
	AssertContains        = "contains"
	AssertStepOrder       = "step_order"
	AssertStepCount       = "step_count"
	AssertSameTranslation = "same_translation"
	AssertDeterministic   = "deterministic"
	AssertCached          = "cached"
)

// LoadScenario reads and parses a scenario YAML file. Procedure paths are
// resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving procedure paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve procedure paths relative to base path BEFORE validation
	for i, p := range scenario.Procedures {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Procedures[i] = filepath.Join(basePath, p)
		}
	}

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	if s.Flavor != "" {
		if _, err := flavor.Lookup(s.Flavor); err != nil {
			return err
		}
	}

	// Validate procedure paths exist
	for _, p := range s.Procedures {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("procedure file not found: %s", p)
		}
	}

	// Validate cases
	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
		if c.Query == "" {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		switch c.Encoding {
		case "", "text", "bytecode":
		default:
			return fmt.Errorf("cases[%d]: unknown encoding %q", i, c.Encoding)
		}
		if c.Expect != nil {
			if c.Expect.Error != "" && (c.Expect.Translation != "" || len(c.Expect.Contains) > 0) {
				return fmt.Errorf("cases[%d].expect: error cannot be combined with translation or contains", i)
			}
			for j, col := range c.Expect.Columns {
				if _, ok := ast.ParseType(col.Type); !ok {
					return fmt.Errorf("cases[%d].expect.columns[%d]: unknown type %q", i, j, col.Type)
				}
			}
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, cases map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needCase := func() error {
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: case is required for %s", index, a.Type)
		}
		if !cases[a.Case] {
			return fmt.Errorf("assertions[%d]: unknown case %q", index, a.Case)
		}
		return nil
	}

	switch a.Type {
	case AssertContains, AssertStepOrder:
		if err := needCase(); err != nil {
			return err
		}
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for %s", index, a.Type)
		}
	case AssertStepCount:
		if err := needCase(); err != nil {
			return err
		}
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for step_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	case AssertSameTranslation:
		if len(a.Cases) < 2 {
			return fmt.Errorf("assertions[%d]: at least two cases are required for same_translation", index)
		}
		for _, c := range a.Cases {
			if !cases[c] {
				return fmt.Errorf("assertions[%d]: unknown case %q", index, c)
			}
		}
	case AssertDeterministic, AssertCached:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

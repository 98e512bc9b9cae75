package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/cyphergremlin/internal/facade"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type        string // Assertion type for categorization
	Expected    string // Human-readable expected outcome
	Actual      string // Human-readable actual outcome
	Translation string // Output of the inspected case, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Translation != "" {
		fmt.Fprintf(&buf, "\nTranslation:\n  %s\n", e.Translation)
	}

	return buf.String()
}

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	Ctx      context.Context
	Scenario *Scenario

	harness *Harness
	cached  *facade.Translator
}

// containsFragment reports whether fragment occurs in translation.
func containsFragment(translation, fragment string) bool {
	return strings.Contains(translation, fragment)
}

// caseOutput returns the translation of the named case, or an error when
// the case failed.
func caseOutput(result *Result, typ, name string) (string, error) {
	cr, ok := result.Case(name)
	if !ok {
		return "", &AssertionError{Type: typ, Expected: fmt.Sprintf("case %s", name), Actual: "no such case"}
	}
	if cr.Error != "" {
		return "", &AssertionError{Type: typ, Expected: fmt.Sprintf("case %s translated", name), Actual: cr.Message}
	}
	return cr.Translation, nil
}

// assertContains checks that every fragment appears in the case output.
func assertContains(result *Result, assertion Assertion) error {
	out, err := caseOutput(result, AssertContains, assertion.Case)
	if err != nil {
		return err
	}
	for _, frag := range assertion.Steps {
		if !containsFragment(out, frag) {
			return &AssertionError{
				Type:        AssertContains,
				Expected:    fmt.Sprintf("fragment %q", frag),
				Actual:      "not found",
				Translation: out,
			}
		}
	}
	return nil
}

// assertStepOrder checks that fragments appear in the specified order.
// Fragments don't need to be adjacent; each is searched after the end of
// the previous match.
func assertStepOrder(result *Result, assertion Assertion) error {
	out, err := caseOutput(result, AssertStepOrder, assertion.Case)
	if err != nil {
		return err
	}

	pos := 0
	for i, frag := range assertion.Steps {
		idx := strings.Index(out[pos:], frag)
		if idx < 0 {
			actual := fmt.Sprintf("missing step: %s", frag)
			if strings.Contains(out, frag) {
				actual = fmt.Sprintf("%s appears before %s", frag, assertion.Steps[i-1])
			}
			return &AssertionError{
				Type:        AssertStepOrder,
				Expected:    fmt.Sprintf("steps in order: %v", assertion.Steps),
				Actual:      actual,
				Translation: out,
			}
		}
		pos += idx + len(frag)
	}
	return nil
}

// assertStepCount checks that the fragment appears exactly Count times.
func assertStepCount(result *Result, assertion Assertion) error {
	out, err := caseOutput(result, AssertStepCount, assertion.Case)
	if err != nil {
		return err
	}
	count := strings.Count(out, assertion.Step)
	if count != assertion.Count {
		return &AssertionError{
			Type:        AssertStepCount,
			Expected:    fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Step),
			Actual:      fmt.Sprintf("%d occurrences", count),
			Translation: out,
		}
	}
	return nil
}

// assertSameTranslation checks that the listed cases produce identical
// output.
func assertSameTranslation(result *Result, assertion Assertion) error {
	first, err := caseOutput(result, AssertSameTranslation, assertion.Cases[0])
	if err != nil {
		return err
	}
	for _, name := range assertion.Cases[1:] {
		out, err := caseOutput(result, AssertSameTranslation, name)
		if err != nil {
			return err
		}
		if out != first {
			return &AssertionError{
				Type:        AssertSameTranslation,
				Expected:    fmt.Sprintf("%s translates like %s", name, assertion.Cases[0]),
				Actual:      out,
				Translation: first,
			}
		}
	}
	return nil
}

// assertRerun translates every case again and compares with the first run.
// With cached set the harness translator is reused, so every successful
// case must come back from the cache.
func assertRerun(result *Result, actx *AssertionContext, cached bool) error {
	typ := AssertDeterministic
	tr := actx.cached
	if cached {
		typ = AssertCached
	} else {
		var err error
		if tr, err = actx.harness.uncached(); err != nil {
			return err
		}
	}

	for i, c := range actx.Scenario.Cases {
		first := result.Cases[i]
		resp, err := tr.Translate(actx.Ctx, actx.harness.request(c))
		if err != nil {
			if first.Error != ErrorCode(err) {
				return &AssertionError{
					Type:     typ,
					Expected: fmt.Sprintf("case %s fails with %q", c.Name, first.Error),
					Actual:   err.Error(),
				}
			}
			continue
		}
		if first.Error != "" {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("case %s fails with %s", c.Name, first.Error),
				Actual:   resp.Translation,
			}
		}
		if resp.Translation != first.Translation {
			return &AssertionError{
				Type:        typ,
				Expected:    first.Translation,
				Actual:      resp.Translation,
				Translation: first.Translation,
			}
		}
		if cached && !resp.Cached {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("case %s served from cache", c.Name),
				Actual:   "translated again",
			}
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions and returns their failures.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertContains:
			err = assertContains(result, assertion)
		case AssertStepOrder:
			err = assertStepOrder(result, assertion)
		case AssertStepCount:
			err = assertStepCount(result, assertion)
		case AssertSameTranslation:
			err = assertSameTranslation(result, assertion)
		case AssertDeterministic, AssertCached:
			if actx == nil || actx.harness == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a harness context", i, assertion.Type)
			} else {
				err = assertRerun(result, actx, assertion.Type == AssertCached)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

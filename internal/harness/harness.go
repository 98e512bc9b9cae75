package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/cyphergremlin/internal/cache"
	"github.com/roach88/cyphergremlin/internal/facade"
	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/parser"
	"github.com/roach88/cyphergremlin/internal/procedures"
	"github.com/roach88/cyphergremlin/internal/testutil"
	"github.com/roach88/cyphergremlin/internal/translate"
)

// Error codes recorded for failures that are not translation errors.
const (
	ErrSyntax      = "SYNTAX_ERROR"
	ErrUnsupported = "UNSUPPORTED_ON_FLAVOR"
	ErrOther       = "ERROR"
)

// Harness is the test execution engine.
// It runs scenarios with sequential request IDs and a fresh cache.
type Harness struct {
	registry *procedures.Registry
	cache    *cache.Memory
	ids      *testutil.SequentialIDs
	logger   *slog.Logger
	flavor   string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against its own procedure registry and in-memory
// cache for isolation. Sequential request IDs keep results reproducible.
//
// Execution flow:
// 1. Load procedure signatures
// 2. Translate every case and check its expect clause
// 3. Evaluate assertions
// 4. Return result with pass/fail, case results, and errors
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	tr, err := h.translator()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		cr := h.translateCase(ctx, tr, c)
		result.AddCase(cr)
		for _, msg := range checkExpect(c, cr) {
			result.AddError(fmt.Sprintf("case %s: %s", c.Name, msg))
		}
		h.logger.Info("case translated", "case", c.Name, "request_id", cr.RequestID, "error", cr.Error)
	}

	// Evaluate assertions against the result
	actx := &AssertionContext{Ctx: ctx, Scenario: scenario, harness: h, cached: tr}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	var sigs []procedures.Signature
	for _, p := range scenario.Procedures {
		s, err := procedures.LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load procedures: %w", err)
		}
		sigs = append(sigs, s...)
	}
	registry, err := procedures.NewRegistry(sigs...)
	if err != nil {
		return nil, fmt.Errorf("failed to register procedures: %w", err)
	}
	return &Harness{
		registry: registry,
		cache:    cache.NewMemory(cache.DefaultSize, 0),
		ids:      testutil.NewSequentialIDs(scenario.Name),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		flavor:   scenario.Flavor,
	}, nil
}

// translator returns a facade bound to the harness cache and ID sequence.
func (h *Harness) translator() (*facade.Translator, error) {
	return facade.New(h.registry,
		facade.WithCache(h.cache),
		facade.WithLogger(h.logger),
		facade.WithRequestIDs(h.ids.Next))
}

// uncached returns a facade with no cache and its own ID sequence.
func (h *Harness) uncached() (*facade.Translator, error) {
	return facade.New(h.registry,
		facade.WithLogger(h.logger),
		facade.WithRequestIDs(testutil.NewSequentialIDs("rerun").Next))
}

func (h *Harness) request(c Case) facade.Request {
	req := facade.Request{
		Query:    c.Query,
		Params:   convertParams(c.Params),
		Flavor:   h.flavor,
		Encoding: c.Encoding,
	}
	if c.Flavor != "" {
		req.Flavor = c.Flavor
	}
	return req
}

func (h *Harness) translateCase(ctx context.Context, tr *facade.Translator, c Case) CaseResult {
	cr := CaseResult{Name: c.Name}
	resp, err := tr.Translate(ctx, h.request(c))
	if err != nil {
		cr.Error = ErrorCode(err)
		cr.Message = err.Error()
		return cr
	}
	cr.RequestID = resp.RequestID
	cr.Translation = resp.Translation
	cr.Columns = resp.Columns
	cr.Options = resp.Options
	return cr
}

// ErrorCode classifies a translation failure: the translate error code,
// ErrSyntax, ErrUnsupported or ErrOther.
func ErrorCode(err error) string {
	var terr *translate.Error
	switch {
	case errors.As(err, &terr):
		return string(terr.Code)
	case parser.IsSyntaxError(err):
		return ErrSyntax
	case flavor.IsUnsupported(err):
		return ErrUnsupported
	}
	return ErrOther
}

// checkExpect compares a case result with its expect clause.
func checkExpect(c Case, cr CaseResult) []string {
	exp := c.Expect
	if exp == nil {
		if cr.Error != "" {
			return []string{fmt.Sprintf("unexpected error: %s", cr.Message)}
		}
		return nil
	}

	var errs []string
	if exp.Error != "" {
		if cr.Error != exp.Error {
			errs = append(errs, fmt.Sprintf("expected error %s, got %q (%s)", exp.Error, cr.Error, cr.Message))
		}
		return errs
	}
	if cr.Error != "" {
		return []string{fmt.Sprintf("unexpected error: %s", cr.Message)}
	}

	if exp.Translation != "" && cr.Translation != exp.Translation {
		errs = append(errs, fmt.Sprintf("translation mismatch:\n  expected: %s\n  actual:   %s", exp.Translation, cr.Translation))
	}
	for _, frag := range exp.Contains {
		if !containsFragment(cr.Translation, frag) {
			errs = append(errs, fmt.Sprintf("translation does not contain %q", frag))
		}
	}
	if exp.Columns != nil {
		got := make([]ColumnExpect, len(cr.Columns))
		for i, col := range cr.Columns {
			got[i] = ColumnExpect{Name: col.Name, Type: string(col.Type)}
		}
		if !slices.Equal(got, exp.Columns) {
			errs = append(errs, fmt.Sprintf("columns: expected %v, got %v", exp.Columns, got))
		}
	}
	if exp.Options != nil && !slices.Equal(cr.Options, exp.Options) {
		errs = append(errs, fmt.Sprintf("options: expected %v, got %v", exp.Options, cr.Options))
	}
	return errs
}

// convertParams normalizes YAML-decoded parameter values: ints become
// int64, nested lists and maps are converted recursively.
func convertParams(params map[string]interface{}) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(val interface{}) any {
	switch v := val.(type) {
	case int:
		return int64(v)
	case []interface{}:
		arr := make([]any, len(v))
		for i, elem := range v {
			arr[i] = convertValue(elem)
		}
		return arr
	case map[string]interface{}:
		return convertParams(v)
	}
	return val
}

package harness

import "github.com/roach88/cyphergremlin/internal/translate"

// CaseResult is the outcome of translating one scenario case.
type CaseResult struct {
	Name        string                `json:"name"`
	RequestID   string                `json:"request_id,omitempty"`
	Translation string                `json:"translation,omitempty"`
	Columns     translate.ReturnTable `json:"columns,omitempty"`
	Options     []string              `json:"options,omitempty"`
	Error       string                `json:"error,omitempty"` // error code, see ErrorCode
	Message     string                `json:"message,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Cases holds one result per scenario case, in scenario order.
	Cases []CaseResult `json:"cases"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase records a case result.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
}

// Case returns the result of the named case.
func (r *Result) Case(name string) (CaseResult, bool) {
	for _, c := range r.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return CaseResult{}, false
}

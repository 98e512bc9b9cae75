// Package native builds traversals as in-process step trees.
//
// Unlike the text and bytecode encodings, a native traversal carries the
// Go implementations of every runtime function and custom predicate it
// references, resolved from an extension.Registry when the step is added.
// Parameters are bound to their values. An Executor runs the tree against
// a graph.
package native

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/cyphergremlin/internal/extension"
)

// Traversal is an ordered list of steps. Anonymous traversals are the
// children passed to where(), choose(), map() and friends.
type Traversal struct {
	Steps     []Step
	Anonymous bool
}

// Step is one traversal step. Args hold plain values, tokens from the
// steps package, *Traversal children, *Call and *Test.
type Step struct {
	Name string
	Args []any
}

// Call is a resolved runtime function application.
type Call struct {
	Name string
	Args []any
	Fn   extension.Func
}

// Apply runs the function on a traverser value.
func (c *Call) Apply(v any) (any, error) {
	if c.Fn == nil {
		return nil, fmt.Errorf("unresolved runtime function %s", c.Name)
	}
	return c.Fn(v, c.Args)
}

// Test is a resolved predicate. Custom is nil for built-in predicates.
type Test struct {
	Name   string
	Args   []any
	Custom extension.Predicate
}

// Executor runs a native traversal and returns its rows. Each row maps
// the projected column names to values; nulls are still the null sentinel.
type Executor interface {
	Execute(ctx context.Context, t *Traversal) ([]map[string]any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, t *Traversal) ([]map[string]any, error)

func (f ExecutorFunc) Execute(ctx context.Context, t *Traversal) ([]map[string]any, error) {
	return f(ctx, t)
}

// Names returns the step names in order.
func (t *Traversal) Names() []string {
	names := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		names[i] = s.Name
	}
	return names
}

// String renders the traversal for logs and debugging. It is not a
// submittable Gremlin text.
func (t *Traversal) String() string {
	var sb strings.Builder
	if t.Anonymous {
		sb.WriteString("__")
	} else {
		sb.WriteString("g")
	}
	for _, s := range t.Steps {
		sb.WriteString(".")
		sb.WriteString(s.Name)
		sb.WriteString("(")
		for i, a := range s.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(describe(a))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func describe(v any) string {
	switch x := v.(type) {
	case *Traversal:
		return x.String()
	case *Call:
		return x.Name + fmt.Sprint(x.Args)
	case *Test:
		return x.Name + fmt.Sprint(x.Args)
	case string:
		return fmt.Sprintf("%q", x)
	}
	return fmt.Sprint(v)
}

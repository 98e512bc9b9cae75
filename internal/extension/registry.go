package extension

import (
	"fmt"
	"sort"
)

// Func is a runtime function applied by map(). Value is the traverser
// value; args are the constant arguments rendered into the call.
type Func func(value any, args []any) (any, error)

// Predicate is a custom predicate. Value is the tested traverser value;
// args are the predicate arguments.
type Predicate func(value any, args []any) (bool, error)

// Registry resolves runtime function and predicate names.
//
// A Registry is immutable once built; With* methods return a copy, so a
// registry can be shared across concurrent translations.
type Registry struct {
	functions  map[string]Func
	predicates map[string]Predicate
}

func unary(fn func(any) (any, error)) Func {
	return func(v any, _ []any) (any, error) { return fn(v) }
}

func test(fn func(any) bool) Predicate {
	return func(v any, _ []any) (bool, error) { return fn(v), nil }
}

func exception(_ any, args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("cypherException expects an error code, got %v", args)
	}
	code, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("cypherException expects a string code, got %T", args[0])
	}
	return nil, NewError(ErrorCode(code))
}

func regex(v any, args []any) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("cypherRegex expects a pattern, got %v", args)
	}
	return Regex(v, args[0])
}

// Default returns a registry with every built-in runtime function and
// predicate.
func Default() *Registry {
	return &Registry{
		functions: map[string]Func{
			"cypherToString":       unary(ToString),
			"cypherToBoolean":      unary(ToBoolean),
			"cypherToInteger":      unary(ToInteger),
			"cypherToFloat":        unary(ToFloat),
			"cypherProperties":     unary(Properties),
			"cypherContainerIndex": unary(ContainerIndex),
			"cypherListSlice":      unary(ListSlice),
			"cypherPercentileCont": unary(PercentileCont),
			"cypherPercentileDisc": unary(PercentileDisc),
			"cypherSize":           unary(Size),
			"cypherPlus":           unary(Plus),
			"cypherRange":          unary(Range),
			"cypherException":      exception,
		},
		predicates: map[string]Predicate{
			"cypherIsNode":         test(IsNode),
			"cypherIsRelationship": test(IsRelationship),
			"cypherIsString":       test(IsString),
			"cypherRegex":          regex,
		},
	}
}

func (r *Registry) clone() *Registry {
	out := &Registry{
		functions:  make(map[string]Func, len(r.functions)+1),
		predicates: make(map[string]Predicate, len(r.predicates)),
	}
	for k, v := range r.functions {
		out.functions[k] = v
	}
	for k, v := range r.predicates {
		out.predicates[k] = v
	}
	return out
}

// WithFunction returns a copy of r with fn registered under name.
func (r *Registry) WithFunction(name string, fn Func) *Registry {
	out := r.clone()
	out.functions[name] = fn
	return out
}

// WithPredicate returns a copy of r with p registered under name.
func (r *Registry) WithPredicate(name string, p Predicate) *Registry {
	out := r.clone()
	out.predicates[name] = p
	return out
}

// Function resolves a runtime function by name.
func (r *Registry) Function(name string) (Func, bool) {
	fn, ok := r.functions[name]
	return fn, ok
}

// Predicate resolves a custom predicate by name.
func (r *Registry) Predicate(name string) (Predicate, bool) {
	p, ok := r.predicates[name]
	return p, ok
}

// Names returns the sorted names of all registered functions and predicates.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions)+len(r.predicates))
	for k := range r.functions {
		names = append(names, k)
	}
	for k := range r.predicates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

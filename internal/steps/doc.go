// Package steps defines the step-builder capability the translator emits
// traversals through.
//
// The translator is written once against the Steps interface. Each output
// encoding supplies one implementation:
//
//	groovy   - traversal source text ("g.V().as('n')...")
//	bytecode - portable instruction lists for out-of-process submission
//	native   - an executable step tree handed to an in-process executor
//
// Flavor decorators (internal/flavor) wrap a Steps value and intercept
// individual primitives. Forward is the pass-through base they embed.
//
// Builders are append-only and mutate in place: every primitive appends one
// step and returns the builder itself, so both chained and statement-style
// use see the same traversal. Start creates an anonymous child traversal
// ("__") that shares the parent's error sink.
package steps

// Package alias tracks the generated names that source variables resolve to
// during one translation.
//
// An Env is created per translation call and discarded afterwards. It is not
// safe for concurrent use and must never be shared between requests.
package alias

import "fmt"

// Env maps a source variable name to its current generated name.
//
// Generations of a base name are allocated as:
//
//	Next("n") -> "n"
//	Next("n") -> "n_1"
//	Next("n") -> "n_2"
//
// Current never allocates: before the first Next it returns the base name.
type Env struct {
	counters map[string]int    // base name → number of allocations so far
	current  map[string]string // base name → latest allocation
	fresh    map[string]int    // prefix → counter for Fresh
	taken    map[string]bool   // every name handed out, across bases
}

// New creates an empty alias environment.
func New() *Env {
	return &Env{
		counters: make(map[string]int),
		current:  make(map[string]string),
		fresh:    make(map[string]int),
		taken:    make(map[string]bool),
	}
}

// Next allocates the next generation of base and makes it current.
// The returned name is never equal to any name previously returned by
// this Env.
func (e *Env) Next(base string) string {
	for {
		n := e.counters[base]
		e.counters[base] = n + 1

		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		// "n_1" may already exist as a user variable with its own history.
		if e.taken[name] {
			continue
		}
		e.taken[name] = true
		e.current[base] = name
		return name
	}
}

// Current returns the latest generation of base, or base itself if Next
// was never called for it.
func (e *Env) Current(base string) string {
	if name, ok := e.current[base]; ok {
		return name
	}
	return base
}

// Allocated reports whether Next was called for base at least once.
func (e *Env) Allocated(base string) bool {
	_, ok := e.current[base]
	return ok
}

// Fresh returns a user-invisible name built from prefix and a per-prefix
// counter starting at 1, e.g. Fresh("  GENERATED") -> "  GENERATED1".
func (e *Env) Fresh(prefix string) string {
	for {
		e.fresh[prefix]++
		name := fmt.Sprintf("%s%d", prefix, e.fresh[prefix])
		if e.taken[name] {
			continue
		}
		e.taken[name] = true
		return name
	}
}

// Reserve marks names as taken without binding them to a base, so that
// neither Next nor Fresh will ever return them.
func (e *Env) Reserve(names ...string) {
	for _, n := range names {
		e.taken[n] = true
	}
}

// Snapshot returns a copy of the current base → name bindings.
func (e *Env) Snapshot() map[string]string {
	out := make(map[string]string, len(e.current))
	for k, v := range e.current {
		out[k] = v
	}
	return out
}

package flavor

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// UnsupportedError reports the custom functions and predicates a traversal
// used on a flavor whose engine lacks the runtime extension.
type UnsupportedError struct {
	Names []string
}

func (e *UnsupportedError) Error() string {
	return "custom functions and predicates are not supported on this flavor: " + strings.Join(e.Names, ", ")
}

// IsUnsupported returns true if err reports unsupported custom functions.
func IsUnsupported(err error) bool {
	var e *UnsupportedError
	return errors.As(err, &e)
}

// usage is shared by a decorated traversal and all of its children.
type usage struct {
	mu    sync.Mutex
	names map[string]bool
}

func (u *usage) record(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names[name] = true
}

func (u *usage) err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.names) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.names))
	for n := range u.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return &UnsupportedError{Names: names}
}

// NoCustomFunctions records every runtime extension function or custom
// predicate the translator emits. Err fails the translation naming them.
type NoCustomFunctions struct {
	*steps.Forward
	used *usage
}

// NewNoCustomFunctions wraps inner.
func NewNoCustomFunctions(inner steps.Steps) steps.Steps {
	return newNoCustomFunctions(inner, &usage{names: map[string]bool{}})
}

func newNoCustomFunctions(inner steps.Steps, used *usage) steps.Steps {
	d := &NoCustomFunctions{used: used}
	d.Forward = steps.NewForward(inner, d, func(child steps.Steps) steps.Steps {
		return newNoCustomFunctions(child, used)
	})
	return d
}

func (d *NoCustomFunctions) Err() error {
	if err := d.Inner.Err(); err != nil {
		return err
	}
	return d.used.err()
}

func (d *NoCustomFunctions) check(p steps.P) {
	if p.Custom {
		d.used.record(p.Name)
	}
}

func (d *NoCustomFunctions) MapFunction(fn steps.Function) steps.Steps {
	d.used.record(fn.Name)
	d.Inner.MapFunction(fn)
	return d.Self
}

func (d *NoCustomFunctions) Is(p steps.P) steps.Steps {
	d.check(p)
	d.Inner.Is(p)
	return d.Self
}

func (d *NoCustomFunctions) HasValue(key string, p steps.P) steps.Steps {
	d.check(p)
	d.Inner.HasValue(key, p)
	return d.Self
}

func (d *NoCustomFunctions) WherePredicate(p steps.P) steps.Steps {
	d.check(p)
	d.Inner.WherePredicate(p)
	return d.Self
}

func (d *NoCustomFunctions) WhereKey(startKey string, p steps.P) steps.Steps {
	d.check(p)
	d.Inner.WhereKey(startKey, p)
	return d.Self
}

func (d *NoCustomFunctions) ChoosePredicate(p steps.P, trueChoice, falseChoice steps.Steps) steps.Steps {
	d.check(p)
	d.Inner.ChoosePredicate(p, trueChoice, falseChoice)
	return d.Self
}

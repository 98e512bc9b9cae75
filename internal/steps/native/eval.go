package native

import (
	"fmt"

	"github.com/roach88/cyphergremlin/internal/extension"
)

// Evaluate tests v against the predicate. Built-in predicates follow the
// Gremlin semantics: comparisons between incomparable values are false.
func (p *Test) Evaluate(v any) (bool, error) {
	if p.Custom != nil {
		return p.Custom(v, p.Args)
	}
	arg := func(i int) any {
		if i < len(p.Args) {
			return p.Args[i]
		}
		return nil
	}
	cmp := func(want func(int) bool) bool {
		c, ok := extension.Compare(v, arg(0))
		return ok && want(c)
	}
	switch p.Name {
	case "eq":
		return equal(v, arg(0)), nil
	case "neq":
		return !equal(v, arg(0)), nil
	case "lt":
		return cmp(func(c int) bool { return c < 0 }), nil
	case "lte":
		return cmp(func(c int) bool { return c <= 0 }), nil
	case "gt":
		return cmp(func(c int) bool { return c > 0 }), nil
	case "gte":
		return cmp(func(c int) bool { return c >= 0 }), nil
	case "between":
		lo, ok1 := extension.Compare(v, arg(0))
		hi, ok2 := extension.Compare(v, arg(1))
		return ok1 && ok2 && lo >= 0 && hi < 0, nil
	case "within":
		return within(v, p.Args), nil
	case "without":
		return !within(v, p.Args), nil
	case "startingWith":
		return extension.StartsWith(v, arg(0)), nil
	case "endingWith":
		return extension.EndsWith(v, arg(0)), nil
	case "containing":
		return extension.Contains(v, arg(0)), nil
	}
	return false, fmt.Errorf("unknown predicate %s", p.Name)
}

// equal is Gremlin equality: the null sentinel equals itself.
func equal(a, b any) bool {
	if extension.IsNull(a) || extension.IsNull(b) {
		return extension.IsNull(a) && extension.IsNull(b)
	}
	return extension.Equal(a, b) == true
}

func within(v any, set []any) bool {
	for _, e := range set {
		if equal(v, e) {
			return true
		}
	}
	return false
}

package extension

import (
	"strings"
)

// Three-valued logic. Operands and results are true, false or nil, where
// nil is unknown. Non-boolean operands are treated as unknown.

func ternary(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// And returns false if either side is false, nil if either is unknown.
func And(a, b any) any {
	x, xok := ternary(a)
	y, yok := ternary(b)
	if (xok && !x) || (yok && !y) {
		return false
	}
	if !xok || !yok {
		return nil
	}
	return true
}

// Or returns true if either side is true, nil if either is unknown.
func Or(a, b any) any {
	x, xok := ternary(a)
	y, yok := ternary(b)
	if (xok && x) || (yok && y) {
		return true
	}
	if !xok || !yok {
		return nil
	}
	return false
}

// Xor is unknown if either side is unknown.
func Xor(a, b any) any {
	x, xok := ternary(a)
	y, yok := ternary(b)
	if !xok || !yok {
		return nil
	}
	return x != y
}

// Not is unknown for an unknown operand.
func Not(a any) any {
	x, ok := ternary(a)
	if !ok {
		return nil
	}
	return !x
}

// Equal compares two values with Cypher equality. The result is nil when
// either side is null or a nested comparison is undecided.
func Equal(a, b any) any {
	if IsNull(a) || IsNull(b) {
		return nil
	}
	if x, ok := toNumber(a); ok {
		y, ok := toNumber(b)
		if !ok {
			return false
		}
		return x == y
	}
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		var result any = true
		for i := range x {
			result = And(result, Equal(x[i], y[i]))
			if result == false {
				return false
			}
		}
		return result
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		var result any = true
		for k, xv := range x {
			yv, ok := y[k]
			if !ok {
				return false
			}
			result = And(result, Equal(xv, yv))
			if result == false {
				return false
			}
		}
		return result
	case *Vertex:
		y, ok := b.(*Vertex)
		return ok && x.ID == y.ID
	case *Edge:
		y, ok := b.(*Edge)
		return ok && x.ID == y.ID
	}
	return a == b
}

// Compare orders two values of the same comparable kind: numbers, strings
// or booleans. The second result is false when the values are null or not
// mutually comparable, which Cypher treats as unknown.
func Compare(a, b any) (int, bool) {
	if IsNull(a) || IsNull(b) {
		return 0, false
	}
	if x, ok := toNumber(a); ok {
		y, ok := toNumber(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		case x == y:
			return 0, true
		}
		// NaN
		return 0, false
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

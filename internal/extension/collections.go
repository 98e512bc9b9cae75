package extension

import (
	"unicode/utf8"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// Properties implements cypherProperties: the property map of an element,
// or a map unchanged.
func Properties(v any) (any, error) {
	switch x := v.(type) {
	case *Vertex:
		return copyMap(x.Properties), nil
	case *Edge:
		return copyMap(x.Properties), nil
	case map[string]any:
		return x, nil
	}
	if IsNull(v) {
		return steps.Null, nil
	}
	return nil, errorf(ErrCodeInvalidArgument, "properties() expects a node, relationship or map, got %s", TypeName(v))
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ContainerIndex implements cypherContainerIndex over [container, index].
// Lists take integer indexes (negative counts from the end); maps and
// elements take string keys. Missing entries are null.
func ContainerIndex(v any) (any, error) {
	a, err := args(v, 2, "cypherContainerIndex")
	if err != nil {
		return nil, err
	}
	container, index := a[0], a[1]
	if IsNull(container) || IsNull(index) {
		return steps.Null, nil
	}
	switch c := container.(type) {
	case []any:
		i, ok := toInt(index)
		if !ok {
			return nil, errorf(ErrCodeInvalidArgument, "list index must be an Integer, got %s", TypeName(index))
		}
		if i < 0 {
			i += int64(len(c))
		}
		if i < 0 || i >= int64(len(c)) {
			return steps.Null, nil
		}
		return c[i], nil
	case map[string]any:
		return lookup(c, index)
	case *Vertex:
		return lookup(c.Properties, index)
	case *Edge:
		return lookup(c.Properties, index)
	}
	return nil, errorf(ErrCodeInvalidArgument, "cannot index into %s", TypeName(container))
}

func lookup(m map[string]any, key any) (any, error) {
	k, ok := key.(string)
	if !ok {
		return nil, errorf(ErrCodeInvalidArgument, "map key must be a String, got %s", TypeName(key))
	}
	if val, ok := m[k]; ok && val != nil {
		return val, nil
	}
	return steps.Null, nil
}

// ListSlice implements cypherListSlice over [list, from, to]. A null bound
// is open; negative bounds count from the end; bounds are clamped.
func ListSlice(v any) (any, error) {
	a, err := args(v, 3, "cypherListSlice")
	if err != nil {
		return nil, err
	}
	if IsNull(a[0]) {
		return steps.Null, nil
	}
	list, ok := a[0].([]any)
	if !ok {
		return nil, errorf(ErrCodeInvalidArgument, "cannot slice %s", TypeName(a[0]))
	}
	n := int64(len(list))
	from, to := int64(0), n
	if !IsNull(a[1]) {
		if from, ok = toInt(a[1]); !ok {
			return nil, errorf(ErrCodeInvalidArgument, "slice bound must be an Integer, got %s", TypeName(a[1]))
		}
	}
	if !IsNull(a[2]) {
		if to, ok = toInt(a[2]); !ok {
			return nil, errorf(ErrCodeInvalidArgument, "slice bound must be an Integer, got %s", TypeName(a[2]))
		}
	}
	from, to = clampIndex(from, n), clampIndex(to, n)
	if from >= to {
		return []any{}, nil
	}
	out := make([]any, to-from)
	copy(out, list[from:to])
	return out, nil
}

func clampIndex(i, n int64) int64 {
	if i < 0 {
		i += n
	}
	switch {
	case i < 0:
		return 0
	case i > n:
		return n
	}
	return i
}

// Size implements cypherSize: characters of a string or elements of a list.
func Size(v any) (any, error) {
	switch x := v.(type) {
	case []any:
		return int64(len(x)), nil
	case string:
		if x == steps.Null {
			return steps.Null, nil
		}
		return int64(utf8.RuneCountInString(x)), nil
	case nil:
		return steps.Null, nil
	}
	return nil, errorf(ErrCodeInvalidArgument, "size() expects a String or List, got %s", TypeName(v))
}

// Plus implements cypherPlus over [a, b]: list concatenation, list append
// and prepend, string concatenation and numeric addition.
func Plus(v any) (any, error) {
	a, err := args(v, 2, "cypherPlus")
	if err != nil {
		return nil, err
	}
	x, y := a[0], a[1]
	if IsNull(x) || IsNull(y) {
		return steps.Null, nil
	}
	xl, xIsList := x.([]any)
	yl, yIsList := y.([]any)
	switch {
	case xIsList && yIsList:
		return append(append(make([]any, 0, len(xl)+len(yl)), xl...), yl...), nil
	case xIsList:
		return append(append(make([]any, 0, len(xl)+1), xl...), y), nil
	case yIsList:
		return append([]any{x}, yl...), nil
	}
	xs, xIsString := x.(string)
	ys, yIsString := y.(string)
	if xIsString || yIsString {
		if !xIsString {
			s, err := ToString(x)
			if err != nil {
				return nil, err
			}
			xs = s.(string)
		}
		if !yIsString {
			s, err := ToString(y)
			if err != nil {
				return nil, err
			}
			ys = s.(string)
		}
		return xs + ys, nil
	}
	if xi, ok := toInt(x); ok {
		if yi, ok := toInt(y); ok {
			return xi + yi, nil
		}
	}
	xf, xok := toNumber(x)
	yf, yok := toNumber(y)
	if xok && yok {
		return xf + yf, nil
	}
	return nil, errorf(ErrCodeInvalidArgument, "cannot add %s and %s", TypeName(x), TypeName(y))
}

// MaxRangeSize is the largest list range() produces.
const MaxRangeSize = 1 << 20

// Range implements cypherRange over [start, end] or [start, end, step].
// Both bounds are inclusive.
func Range(v any) (any, error) {
	list, ok := v.([]any)
	if !ok || len(list) < 2 || len(list) > 3 {
		return nil, errorf(ErrCodeInvalidRange, "range() expects 2 or 3 arguments, got %v", v)
	}
	bounds := make([]int64, 3)
	bounds[2] = 1
	for i, b := range list {
		n, ok := toInt(b)
		if !ok {
			return nil, errorf(ErrCodeInvalidRange, "range() arguments must be Integers, got %s", TypeName(b))
		}
		bounds[i] = n
	}
	start, end, step := bounds[0], bounds[1], bounds[2]
	if step == 0 {
		return nil, errorf(ErrCodeInvalidRange, "range() step cannot be zero")
	}

	// Distances are computed in uint64 so that no bound combination
	// overflows.
	var span, stride uint64
	switch {
	case step > 0 && end >= start:
		span, stride = uint64(end)-uint64(start), uint64(step)
	case step < 0 && start >= end:
		span, stride = uint64(start)-uint64(end), uint64(-(step+1))+1
	default:
		return []any{}, nil
	}
	if span/stride >= MaxRangeSize {
		return nil, errorf(ErrCodeInvalidRange, "range() would produce more than %d elements", MaxRangeSize)
	}
	out := make([]any, span/stride+1)
	n := start
	for i := range out {
		out[i] = n
		n += step
	}
	return out, nil
}

package extension

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/cyphergremlin/internal/steps"
)

func cannotConvert(v any, target string) *Error {
	return errorf(ErrCodeCannotConvert, "Cannot convert %s to %s: %v", TypeName(v), target, v)
}

// ToString implements cypherToString.
func ToString(v any) (any, error) {
	if IsNull(v) {
		return steps.Null, nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return FormatFloat(x), nil
	}
	return nil, cannotConvert(v, "String")
}

// FormatFloat renders a float the way Cypher prints it: always with a
// fractional part or an exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ToBoolean implements cypherToBoolean. Unrecognized strings convert to
// null; numbers cannot be converted.
func ToBoolean(v any) (any, error) {
	if IsNull(v) {
		return steps.Null, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(x) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return steps.Null, nil
	}
	return nil, cannotConvert(v, "Boolean")
}

// ToInteger implements cypherToInteger. Floats and numeric strings are
// truncated; other strings convert to null.
func ToInteger(v any) (any, error) {
	if IsNull(v) {
		return steps.Null, nil
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return truncate(x)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return steps.Null, nil
		}
		return truncate(f)
	}
	return nil, cannotConvert(v, "Integer")
}

func truncate(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, cannotConvert(f, "Integer")
	}
	return int64(f), nil
}

// ToFloat implements cypherToFloat.
func ToFloat(v any) (any, error) {
	if IsNull(v) {
		return steps.Null, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return steps.Null, nil
		}
		return f, nil
	}
	return nil, cannotConvert(v, "Float")
}

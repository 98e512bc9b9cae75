package extension

import (
	"math"
	"sort"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// percentileInput validates [values, fraction] and returns the sorted
// non-null numbers.
func percentileInput(v any, fn string) ([]float64, float64, bool, error) {
	a, err := args(v, 2, fn)
	if err != nil {
		return nil, 0, false, err
	}
	p, ok := toNumber(a[1])
	if !ok {
		return nil, 0, false, errorf(ErrCodeInvalidArgument, "%s fraction must be a number, got %s", fn, TypeName(a[1]))
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, 0, false, errorf(ErrCodePercentileRange,
			"Number out of range: %s. Percentile must be between 0.0 and 1.0", FormatFloat(p))
	}
	values, _ := a[0].([]any)
	nums := make([]float64, 0, len(values))
	allInts := true
	for _, e := range values {
		if IsNull(e) {
			continue
		}
		f, ok := toNumber(e)
		if !ok {
			return nil, 0, false, errorf(ErrCodeInvalidArgument, "%s expects numbers, got %s", fn, TypeName(e))
		}
		if _, isInt := toInt(e); !isInt {
			allInts = false
		}
		nums = append(nums, f)
	}
	sort.Float64s(nums)
	return nums, p, allInts, nil
}

// PercentileCont implements cypherPercentileCont over [values, fraction]
// with linear interpolation between the closest ranks.
func PercentileCont(v any) (any, error) {
	nums, p, _, err := percentileInput(v, "cypherPercentileCont")
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return steps.Null, nil
	}
	pos := p * float64(len(nums)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return nums[int(lo)], nil
	}
	return nums[int(lo)] + (pos-lo)*(nums[int(hi)]-nums[int(lo)]), nil
}

// PercentileDisc implements cypherPercentileDisc over [values, fraction]
// using the nearest rank. Integer inputs give an integer result.
func PercentileDisc(v any) (any, error) {
	nums, p, allInts, err := percentileInput(v, "cypherPercentileDisc")
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return steps.Null, nil
	}
	idx := int(math.Ceil(p*float64(len(nums)))) - 1
	if idx < 0 {
		idx = 0
	}
	if allInts {
		return int64(nums[idx]), nil
	}
	return nums[idx], nil
}

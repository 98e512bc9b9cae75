package extension

import (
	"regexp"
	"strings"
	"sync"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// IsNode implements cypherIsNode.
func IsNode(v any) bool {
	_, ok := v.(*Vertex)
	return ok
}

// IsRelationship implements cypherIsRelationship.
func IsRelationship(v any) bool {
	_, ok := v.(*Edge)
	return ok
}

// IsString implements cypherIsString. The null sentinel is not a string.
func IsString(v any) bool {
	s, ok := v.(string)
	return ok && s != steps.Null
}

// StartsWith, EndsWith and Contains are false when either side is null or
// not a string.
func StartsWith(a, b any) bool { return stringTest(a, b, strings.HasPrefix) }
func EndsWith(a, b any) bool   { return stringTest(a, b, strings.HasSuffix) }
func Contains(a, b any) bool   { return stringTest(a, b, strings.Contains) }

func stringTest(a, b any, test func(string, string) bool) bool {
	if !IsString(a) || !IsString(b) {
		return false
	}
	return test(a.(string), b.(string))
}

var (
	regexMu    sync.Mutex
	regexCache = map[string]*regexp.Regexp{}
)

// Regex implements cypherRegex: the whole of v must match pattern.
func Regex(v, pattern any) (bool, error) {
	if !IsString(v) || !IsString(pattern) {
		return false, nil
	}
	re, err := compileRegex(pattern.(string))
	if err != nil {
		return false, err
	}
	return re.MatchString(v.(string)), nil
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	regexMu.Lock()
	defer regexMu.Unlock()
	if re, ok := regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, errorf(ErrCodeInvalidArgument, "invalid regular expression %q: %v", pattern, err)
	}
	regexCache[pattern] = re
	return re, nil
}

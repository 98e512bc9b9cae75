// Package extension implements the runtime functions and predicates that
// generated traversals call by name (cypherToInteger, cypherRegex, ...).
//
// A Gremlin engine that runs translated traversals needs these installed;
// the native encoding resolves them from Registry directly. Values follow
// the traversal conventions: steps.Null stands for null, integers are
// int64, floats are float64, lists are []any and maps are map[string]any.
// A Go nil is accepted wherever steps.Null is.
package extension

import (
	"fmt"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// Vertex is a graph node as seen by runtime functions.
type Vertex struct {
	ID         any
	Label      string
	Properties map[string]any
}

// Edge is a graph relationship as seen by runtime functions.
type Edge struct {
	ID         any
	Label      string
	OutV       any
	InV        any
	Properties map[string]any
}

// IsNull reports whether v represents null.
func IsNull(v any) bool {
	return v == nil || v == steps.Null
}

// TypeName names the Cypher type of v for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case bool:
		return "Boolean"
	case int64, int:
		return "Integer"
	case float64:
		return "Float"
	case string:
		if v == steps.Null {
			return "NULL"
		}
		return "String"
	case []any:
		return "List"
	case map[string]any:
		return "Map"
	case *Vertex:
		return "Node"
	case *Edge:
		return "Relationship"
	}
	return fmt.Sprintf("%T", v)
}

// args unpacks a function argument list gathered into the traverser.
func args(v any, n int, fn string) ([]any, error) {
	list, ok := v.([]any)
	if !ok || len(list) != n {
		return nil, errorf(ErrCodeInvalidArgument, "%s expects %d arguments, got %v", fn, n, v)
	}
	return list, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
